package util

import (
	"strconv"
)

// ParseInt parses s, falling back to defaultValue on any failure
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(s); err == nil {
		return val
	}
	return defaultValue
}

// ParsePagination reads page/per_page query values with bounds applied.
// Nonsense input degrades to the defaults rather than erroring; a feed page
// request should never 4xx over pagination.
func ParsePagination(pageStr, perPageStr string, maxPerPage int) (page, perPage int) {
	page = ParseInt(pageStr, 1)
	if page < 1 {
		page = 1
	}
	perPage = ParseInt(perPageStr, 20)
	if perPage < 1 {
		perPage = 20
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

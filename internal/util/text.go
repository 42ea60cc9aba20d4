package util

import (
	"strings"
)

// NormalizeHashtag canonicalizes a single tag: trimmed, lowercased, leading
// # stripped. Returns "" for tags that normalize to nothing.
func NormalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.TrimPrefix(tag, "#")
	return strings.ToLower(strings.TrimSpace(tag))
}

// NormalizeHashtags parses a comma-separated tag list into unique normalized
// tags, preserving first-seen order.
func NormalizeHashtags(raw string) []string {
	if raw == "" {
		return []string{}
	}

	seen := make(map[string]bool)
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := NormalizeHashtag(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name        string
		page        string
		perPage     string
		wantPage    int
		wantPerPage int
	}{
		{"defaults", "", "", 1, 20},
		{"explicit", "3", "50", 3, 50},
		{"capped", "1", "500", 1, 100},
		{"garbage", "abc", "-7", 1, 20},
		{"zero page", "0", "10", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := ParsePagination(tt.page, tt.perPage, 100)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestNormalizeHashtags(t *testing.T) {
	assert.Equal(t, []string{"gatos", "humor"}, NormalizeHashtags("Gatos, #gatos, HUMOR"))
	assert.Equal(t, []string{}, NormalizeHashtags(""))
	assert.Equal(t, []string{}, NormalizeHashtags(" , # , "))
	assert.Equal(t, []string{"política"}, NormalizeHashtags("#Política"))
}

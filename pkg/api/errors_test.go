package api

import (
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"ascii", "abcdef", 4, "abcd"},
		{"inside two-byte rune", "aé", 2, "a"},
		{"after two-byte rune", "aéb", 3, "aé"},
		{"inside three-byte rune", "ab€", 4, "ab"},
		{"zero", "é", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestRawErrorBodyIsCutOnRuneBoundary(t *testing.T) {
	raw := []byte(strings.Repeat("a", maxRawDetail-1) + "ü and more")

	e := newError(http.MethodGet, "/factories", http.StatusBadGateway, errorBody{}, raw)

	assert.Equal(t, strings.Repeat("a", maxRawDetail-1), e.Detail)
	assert.True(t, utf8.ValidString(e.Detail))
}

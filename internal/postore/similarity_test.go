// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package postore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "acme ltd", "acme ltd", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "acme", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
		{"shared prefix", "abc12", "abc34", 0.6},
		{"eight of thirteen", "abcdefgh12345", "abcdefgh67890", 16.0 / 26.0},
		// Blocks "ab" and "d": M=3, T=8.
		{"two blocks", "abxd", "abyd", 6.0 / 8.0},
		// Classic difflib example: "abcd" vs "bcde" matches "bcd".
		{"shifted", "abcd", "bcde", 0.75},
		{"case sensitive", "ACME", "acme", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Ratio(tt.a, tt.b), 1e-12)
		})
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"global widgets inc", "global widget co"},
		{"northwind traders", "northwind trading"},
		{"contoso", "contoso ltd"},
	}
	for _, p := range pairs {
		assert.InDelta(t, Ratio(p[0], p[1]), Ratio(p[1], p[0]), 1e-12, "%q vs %q", p[0], p[1])
	}
}

func TestRatio_Unicode(t *testing.T) {
	// Runes, not bytes: "é" counts as one character.
	assert.InDelta(t, 2.0*4/10, Ratio("café1", "café2"), 1e-12)
}

func TestLongestMatch_EarliestWins(t *testing.T) {
	// "ab" occurs twice in b; the earliest occurrence is reported.
	i, j, k := longestMatch([]rune("ab"), []rune("xabab"))
	assert.Equal(t, 0, i)
	assert.Equal(t, 1, j)
	assert.Equal(t, 2, k)
}

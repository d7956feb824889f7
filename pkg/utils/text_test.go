package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollapseSpace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseSpace("  a \n\t b   c "))
	assert.Equal(t, "", CollapseSpace(" \n "))
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"tesla", "Tesla"},
		{"elon MUSK", "Elon musk"},
		{"AI", "Ai"},
		{"", ""},
		{"électrique", "Électrique"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Capitalize(tt.in))
		})
	}
}

func TestFirstParts(t *testing.T) {
	assert.Equal(t, "Jan. 2, 2025", FirstParts("Jan. 2, 2025, 10:00 AM ET", ",", 2))
	assert.Equal(t, "March 3", FirstParts("March 3", ",", 2))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab...", Truncate("abcdef", 2))
}

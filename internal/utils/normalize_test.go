package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeAddress("  0xABCdef "))
	assert.Equal(t, "", NormalizeAddress("   "))
}

func TestParseRawAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000000000000000000", "1000000000000000000"},
		{"-50000000000000000000", "-50000000000000000000"},
		{" 42 ", "42"},
		{"", "0"},
		{"not-a-number", "0"},
	}
	for _, tt := range tests {
		got := ParseRawAmount(tt.input)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "input %q got %s", tt.input, got)
	}
}

func TestNormalizeAmount(t *testing.T) {
	assert.True(t, NormalizeAmount("1000000000000000000").Equal(decimal.NewFromInt(1)))
	assert.True(t, NormalizeAmount("-1500000000000000000").Equal(decimal.RequireFromString("-1.5")))
	assert.True(t, NormalizeAmount("1").Equal(decimal.RequireFromString("0.000000000000000001")))
	assert.True(t, NormalizeAmount("").IsZero())
}

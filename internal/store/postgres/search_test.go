package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolodex/internal/store"
)

func TestTSQuery(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "pricing", expected: "pricing:*"},
		{input: "Pricing  tiers", expected: "pricing:* & tiers:*"},
		{input: "a & b | !c", expected: "a:* & b:* & c:*"},
		{input: "(((", expected: ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := tsQuery(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := tsQuery(" ")
	assert.ErrorIs(t, err, store.ErrValidation)
}

package model_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"agrimarket/internal/model"
)

func TestQuantityArithmetic(t *testing.T) {
	tests := []struct {
		name      string
		from      float64
		take      float64
		exceeds   bool
		remaining float64
	}{
		{name: "float_residue_is_exact", from: 0.3 - 0.1, take: 0.2, exceeds: false, remaining: 0},
		{name: "partial", from: 0.3, take: 0.1, exceeds: false, remaining: 0.2},
		{name: "over", from: 0.2, take: 0.201, exceeds: true, remaining: -0.001},
		{name: "below_scale_ignored", from: 5, take: 5.0004, exceeds: false, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.exceeds, model.QuantityExceeds(tt.take, tt.from))
			require.Equal(t, tt.remaining, model.RemainingQuantity(tt.from, tt.take))
		})
	}
}

func TestRoundQuantity(t *testing.T) {
	require.Equal(t, 0.3, model.RoundQuantity(0.30000000000000004))
	require.Equal(t, 1.235, model.RoundQuantity(1.2345))
	require.Equal(t, 0.0, model.RoundQuantity(0.0004))
}

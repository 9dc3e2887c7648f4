package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoosterCost(t *testing.T) {
	tests := []struct {
		name     string
		base     float64
		level    int
		expected float64
	}{
		{name: "Level zero costs base", base: 50, level: 0, expected: 50},
		{name: "Level one", base: 50, level: 1, expected: 75},
		{name: "Level two rounds", base: 50, level: 2, expected: 113},
		{name: "Steep base", base: 800, level: 3, expected: 2700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BoosterCost(tt.base, tt.level))
		})
	}
}

func TestBoosterCost_Monotonic(t *testing.T) {
	prev := 0.0
	for level := 0; level < 10; level++ {
		cost := BoosterCost(75, level)
		assert.Greater(t, cost, prev)
		prev = cost
	}
}

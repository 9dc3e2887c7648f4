package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserState_ActiveMultiplier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	soon := now.Add(10 * time.Second)
	past := now.Add(-time.Second)

	tests := []struct {
		name     string
		state    UserState
		expected float64
	}{
		{
			name:     "No buff",
			state:    UserState{},
			expected: 1,
		},
		{
			name:     "Frenzy running",
			state:    UserState{FrenzyEndTime: &soon, FrenzyMultiplier: 2},
			expected: 2,
		},
		{
			name:     "Frenzy expired",
			state:    UserState{FrenzyEndTime: &past, FrenzyMultiplier: 2},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.ActiveMultiplier(now))
		})
	}
}

func TestUserState_TapsToday(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	earlier := now.Add(-3 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)

	tests := []struct {
		name     string
		state    UserState
		expected int
	}{
		{
			name:     "Never tapped",
			state:    UserState{TapCountToday: 0},
			expected: 0,
		},
		{
			name:     "Same day keeps the counter",
			state:    UserState{TapCountToday: 42, LastTapDate: &earlier},
			expected: 42,
		},
		{
			name:     "Counter from yesterday reads as zero",
			state:    UserState{TapCountToday: 42, LastTapDate: &yesterday},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.TapsToday(now))
		})
	}
}

func TestSameDay(t *testing.T) {
	base := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	assert.True(t, SameDay(base, base.Add(10*time.Minute).Add(-time.Hour)))
	assert.False(t, SameDay(base, base.Add(time.Hour)))

	// comparison is on the UTC calendar date regardless of zone
	offset := time.FixedZone("plus3", 3*60*60)
	assert.True(t, SameDay(base.In(offset), base))
}

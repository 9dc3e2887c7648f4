package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegen(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	refresh := 5 * time.Minute

	tests := []struct {
		name           string
		current        float64
		max            float64
		elapsed        time.Duration
		rate           float64
		expectedEnergy float64
		expectedTime   time.Time
	}{
		{
			name:    "partial regen",
			current: 10, max: 100,
			elapsed: 30 * time.Second, rate: 0.5,
			expectedEnergy: 25,
			expectedTime:   base.Add(30 * time.Second),
		},
		{
			name:    "capped at max",
			current: 90, max: 100,
			elapsed: time.Hour, rate: 0.5,
			expectedEnergy: 100,
			expectedTime:   base.Add(time.Hour),
		},
		{
			name:    "full tank does not overflow",
			current: 100, max: 100,
			elapsed: 10 * time.Second, rate: 0.2,
			expectedEnergy: 100,
			expectedTime:   base, // below refresh interval, timestamp untouched
		},
		{
			name:    "full tank refreshes timestamp after interval",
			current: 100, max: 100,
			elapsed: 6 * time.Minute, rate: 0.2,
			expectedEnergy: 100,
			expectedTime:   base.Add(6 * time.Minute),
		},
		{
			name:    "negative elapsed clamped",
			current: 40, max: 100,
			elapsed: -time.Minute, rate: 0.5,
			expectedEnergy: 40,
			expectedTime:   base.Add(-time.Minute),
		},
		{
			name:    "overfill preserved, no further gain",
			current: 130, max: 100,
			elapsed: 10 * time.Minute, rate: 0.5,
			expectedEnergy: 130,
			expectedTime:   base.Add(10 * time.Minute),
		},
		{
			name:    "zero elapsed",
			current: 55, max: 100,
			elapsed: 0, rate: 0.5,
			expectedEnergy: 55,
			expectedTime:   base,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := base.Add(tt.elapsed)
			energy, ts := Regen(tt.current, tt.max, base, now, tt.rate, refresh)
			assert.InDelta(t, tt.expectedEnergy, energy, 1e-9)
			assert.Equal(t, tt.expectedTime, ts)
		})
	}
}

func TestRegenMonotonic(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	prev := 0.0
	for secs := 0; secs <= 600; secs += 7 {
		energy, _ := Regen(0, 100, base, base.Add(time.Duration(secs)*time.Second), 0.5, 5*time.Minute)
		assert.GreaterOrEqual(t, energy, prev)
		assert.LessOrEqual(t, energy, 100.0)
		prev = energy
	}
}

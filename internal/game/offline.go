package game

import (
	"math"
	"time"
)

// OfflineParams bounds the away-time bonus.
type OfflineParams struct {
	MinEligibleSeconds float64
	MaxEligibleHours   float64
	Efficiency         float64 // < 1, idle play earns less than active tapping
}

// OfflineEarnings computes the one-time credit a user may claim after being
// away. Below the eligibility floor nothing is earned; above the cap only
// the capped duration counts. The result is floored to a whole coin amount.
func OfflineEarnings(lastActivity, now time.Time, tapPower, regenPerSec float64, p OfflineParams) float64 {
	elapsed := now.Sub(lastActivity).Seconds()
	if elapsed < p.MinEligibleSeconds {
		return 0
	}

	eligible := elapsed
	if limit := p.MaxEligibleHours * 3600; eligible > limit {
		eligible = limit
	}

	return math.Floor(tapPower * regenPerSec * p.Efficiency * eligible)
}

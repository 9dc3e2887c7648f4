// Package game holds the pure arithmetic of the economy: energy
// regeneration and offline earnings. Functions here have no side effects;
// callers persist the results.
package game

import "time"

// Regen advances energy from lastUpdate to now at ratePerSec, capped at
// maxEnergy. Negative elapsed time counts as zero. An existing overfill
// (current > max, from a max-energy booster) is preserved but gains nothing.
//
// While the tank is full the timestamp is still refreshed at least every
// fullRefresh so the stored row does not accumulate recompute drift.
func Regen(current, max float64, lastUpdate, now time.Time, ratePerSec float64, fullRefresh time.Duration) (float64, time.Time) {
	elapsed := now.Sub(lastUpdate).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	if current >= max {
		if now.Sub(lastUpdate) >= fullRefresh {
			return current, now
		}
		return current, lastUpdate
	}

	next := current + ratePerSec*elapsed
	if next > max {
		next = max
	}
	return next, now
}

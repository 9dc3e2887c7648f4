package model

import "time"

// UserState is the authoritative per-user economy state. The database row is
// the source of truth; copies held in memory are mirrors and may lag behind.
type UserState struct {
	TelegramID       int64
	Username         string
	ReferrerID       *int64
	Referrals        int
	IsAdmin          bool
	Balance          float64
	LifetimeEarned   float64
	TapPower         float64
	CurrentEnergy    float64
	MaxEnergy        float64
	LastEnergyUpdate time.Time
	TapCountToday    int
	LastTapDate      *time.Time
	BoostLevels      map[string]int
	UnlockedThemes   []string
	ActiveTheme      string

	// achievement id -> completion time, write-once
	CompletedAchievements map[string]time.Time

	PendingOfflineBonus float64
	LastSeenAt          time.Time

	FrenzyEndTime      *time.Time
	FrenzyMultiplier   float64
	EnergySurgeEndTime *time.Time

	RegistrationDate time.Time
}

// FrenzyActive reports whether the tap multiplier buff is running at now.
func (u *UserState) FrenzyActive(now time.Time) bool {
	return u.FrenzyEndTime != nil && now.Before(*u.FrenzyEndTime)
}

// EnergySurgeActive reports whether taps are free at now.
func (u *UserState) EnergySurgeActive(now time.Time) bool {
	return u.EnergySurgeEndTime != nil && now.Before(*u.EnergySurgeEndTime)
}

// ActiveMultiplier is the tap reward multiplier in effect at now.
func (u *UserState) ActiveMultiplier(now time.Time) float64 {
	if u.FrenzyActive(now) && u.FrenzyMultiplier > 1 {
		return u.FrenzyMultiplier
	}
	return 1
}

// TapsToday returns the daily counter, treating a stale date as zero.
func (u *UserState) TapsToday(now time.Time) int {
	if u.LastTapDate == nil || !SameDay(*u.LastTapDate, now) {
		return 0
	}
	return u.TapCountToday
}

// SameDay compares two instants by UTC calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

type LeaderboardEntry struct {
	TelegramID int64
	Username   string
	Balance    float64
	Referrals  int
}

package model

// BoosterEffect names the stat a booster level raises.
type BoosterEffect string

const (
	EffectTapPower  BoosterEffect = "tap_power"
	EffectMaxEnergy BoosterEffect = "max_energy"
)

// BoosterDefinition is a static catalog entry. Cost grows geometrically with
// the owned level; Value is the per-level stat increment.
type BoosterDefinition struct {
	ID       string
	Title    string
	BaseCost float64
	MaxLevel int
	Effect   BoosterEffect
	Value    float64
}

type ThemeDefinition struct {
	ID    string
	Title string
	Cost  float64
}

// AchievementCriteria names the rule kind an achievement checks.
type AchievementCriteria string

const (
	CriteriaTapsToday      AchievementCriteria = "taps_today"
	CriteriaLifetimeEarned AchievementCriteria = "lifetime_earned"
	CriteriaReferrals      AchievementCriteria = "referrals"
	CriteriaBoosterOwned   AchievementCriteria = "booster_owned"
)

// AchievementDefinition is a static catalog entry. Threshold is the counter
// value the criteria must reach; BoosterID narrows CriteriaBoosterOwned to a
// specific booster when non-empty.
type AchievementDefinition struct {
	ID        string
	Title     string
	Criteria  AchievementCriteria
	Threshold float64
	BoosterID string
	Reward    float64
}

// QuestDefinition is a static catalog entry for the daily rotation.
type QuestDefinition struct {
	ID     string
	Title  string
	Event  QuestEvent
	Target int
	Reward float64
}

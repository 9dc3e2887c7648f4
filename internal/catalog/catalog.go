// Package catalog holds the static game configuration: booster, theme,
// achievement and quest definitions plus the economy tunables. Entries are
// read-only; user progress against them lives in the database.
package catalog

import (
	"time"

	"coindrop/internal/model"
)

const (
	// tap economy
	BaseTapPower      = 0.1
	BaseMaxEnergy     = 100.0
	EnergyRegenPerSec = 0.5
	EnergyOverfillCap = 1.5 // current energy may exceed max up to this factor
	FullTankRefresh   = 5 * time.Minute
	BoosterCostGrowth = 1.5

	// offline earnings
	OfflineMinEligibleSeconds = 300
	OfflineMaxEligibleHours   = 3
	OfflineEfficiency         = 0.2

	// redemptions
	MinRedeemAmount = 1000.0

	// timed buffs
	FrenzyCost       = 250.0
	FrenzyDuration   = 30 * time.Second
	FrenzyMultiplier = 2.0
	SurgeCost        = 150.0
	SurgeDuration    = 20 * time.Second

	DailyQuestCount = 3

	DefaultTheme = "classic"
)

var boosters = []model.BoosterDefinition{
	{ID: "power_glove", Title: "Power Glove", BaseCost: 50, MaxLevel: 10, Effect: model.EffectTapPower, Value: 0.1},
	{ID: "turbo_finger", Title: "Turbo Finger", BaseCost: 500, MaxLevel: 5, Effect: model.EffectTapPower, Value: 0.5},
	{ID: "battery_pack", Title: "Battery Pack", BaseCost: 75, MaxLevel: 10, Effect: model.EffectMaxEnergy, Value: 25},
	{ID: "reactor_core", Title: "Reactor Core", BaseCost: 800, MaxLevel: 4, Effect: model.EffectMaxEnergy, Value: 100},
}

var themes = []model.ThemeDefinition{
	{ID: DefaultTheme, Title: "Classic", Cost: 0},
	{ID: "midnight", Title: "Midnight", Cost: 300},
	{ID: "aurora", Title: "Aurora", Cost: 750},
	{ID: "gold_rush", Title: "Gold Rush", Cost: 2000},
}

var achievements = []model.AchievementDefinition{
	{ID: "first_tap", Title: "First Tap", Criteria: model.CriteriaTapsToday, Threshold: 1, Reward: 10},
	{ID: "tap_marathon", Title: "Tap Marathon", Criteria: model.CriteriaTapsToday, Threshold: 1000, Reward: 250},
	{ID: "hundredaire", Title: "Hundredaire", Criteria: model.CriteriaLifetimeEarned, Threshold: 100, Reward: 25},
	{ID: "ten_k_club", Title: "10K Club", Criteria: model.CriteriaLifetimeEarned, Threshold: 10000, Reward: 500},
	{ID: "first_friend", Title: "First Friend", Criteria: model.CriteriaReferrals, Threshold: 1, Reward: 100},
	{ID: "recruiter", Title: "Recruiter", Criteria: model.CriteriaReferrals, Threshold: 10, Reward: 1000},
	{ID: "gearhead", Title: "Gearhead", Criteria: model.CriteriaBoosterOwned, Reward: 50},
	{ID: "reactor_online", Title: "Reactor Online", Criteria: model.CriteriaBoosterOwned, BoosterID: "reactor_core", Reward: 300},
}

var dailyQuests = []model.QuestDefinition{
	{ID: "daily_tap_100", Title: "Tap 100 times", Event: model.QuestEventTap, Target: 100, Reward: 50},
	{ID: "daily_tap_500", Title: "Tap 500 times", Event: model.QuestEventTap, Target: 500, Reward: 150},
	{ID: "daily_shopper", Title: "Buy any upgrade", Event: model.QuestEventPurchase, Target: 1, Reward: 75},
	{ID: "daily_collector", Title: "Buy two upgrades", Event: model.QuestEventPurchase, Target: 2, Reward: 200},
	{ID: "daily_explorer", Title: "Visit 3 pages", Event: model.QuestEventPageVisit, Target: 3, Reward: 40},
	{ID: "daily_tourist", Title: "Visit 5 pages", Event: model.QuestEventPageVisit, Target: 5, Reward: 90},
}

func Boosters() []model.BoosterDefinition { return boosters }

func BoosterByID(id string) (model.BoosterDefinition, bool) {
	for _, b := range boosters {
		if b.ID == id {
			return b, true
		}
	}
	return model.BoosterDefinition{}, false
}

func Themes() []model.ThemeDefinition { return themes }

func ThemeByID(id string) (model.ThemeDefinition, bool) {
	for _, t := range themes {
		if t.ID == id {
			return t, true
		}
	}
	return model.ThemeDefinition{}, false
}

func Achievements() []model.AchievementDefinition { return achievements }

func DailyQuests() []model.QuestDefinition { return dailyQuests }

func QuestByID(id string) (model.QuestDefinition, bool) {
	for _, q := range dailyQuests {
		if q.ID == id {
			return q, true
		}
	}
	return model.QuestDefinition{}, false
}

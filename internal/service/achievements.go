package service

import (
	"context"
	"errors"
	"time"

	"coindrop/internal/catalog"
	"coindrop/internal/model"
	"coindrop/internal/repository"
)

// AchievementService evaluates the milestone catalog against current user
// state and grants rewards through the write-once ledger path. It is safe
// to run from any number of concurrent observers: the grant itself is
// idempotent, so the worst case for a losing evaluator is a clean abort.
type AchievementService struct {
	repo EconomyRepository
}

func NewAchievementService(repo EconomyRepository) *AchievementService {
	return &AchievementService{repo: repo}
}

func (s *AchievementService) Evaluate(ctx context.Context, telegramID int64) error {
	state, err := s.repo.GetUserState(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	now := time.Now().UTC()
	for _, def := range catalog.Achievements() {
		if _, done := state.CompletedAchievements[def.ID]; done {
			continue
		}
		if !CriteriaMet(def, state, now) {
			continue
		}

		kind := model.TxAchievement
		if def.Criteria == model.CriteriaReferrals {
			kind = model.TxReferral
		}

		err := s.repo.GrantAchievement(ctx, telegramID, def.ID, def.Reward, kind, now)
		if err != nil {
			if errors.Is(err, repository.ErrAlreadyClaimed) {
				// a concurrent evaluator granted it first
				continue
			}
			return err
		}
	}

	return nil
}

// CriteriaMet reports whether an achievement's rule holds for state at now.
func CriteriaMet(def model.AchievementDefinition, state *model.UserState, now time.Time) bool {
	switch def.Criteria {
	case model.CriteriaTapsToday:
		return float64(state.TapsToday(now)) >= def.Threshold
	case model.CriteriaLifetimeEarned:
		return state.LifetimeEarned >= def.Threshold
	case model.CriteriaReferrals:
		return float64(state.Referrals) >= def.Threshold
	case model.CriteriaBoosterOwned:
		if def.BoosterID != "" {
			return state.BoostLevels[def.BoosterID] > 0
		}
		for _, level := range state.BoostLevels {
			if level > 0 {
				return true
			}
		}
		return false
	}
	return false
}

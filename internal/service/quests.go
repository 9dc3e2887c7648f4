package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"coindrop/internal/catalog"
	"coindrop/internal/model"
	"coindrop/internal/repository"
	"coindrop/pkg/logger"

	"go.uber.org/zap"
)

// QuestService owns the daily rotation policy and quest progress. Progress
// events are fire-and-forget: they accumulate toward completion but a lost
// increment only delays a quest, it cannot corrupt a balance.
type QuestService struct {
	repo QuestRepository
}

func NewQuestService(repo QuestRepository) *QuestService {
	return &QuestService{repo: repo}
}

// EnsureRotation replaces the user's quest set with a fresh random pick if
// the last rotation happened on an earlier calendar day. Safe to call on
// every session start; the repository skips same-day calls.
func (s *QuestService) EnsureRotation(ctx context.Context, telegramID int64) error {
	_, err := s.repo.RotateDailyQuests(ctx, telegramID, PickDailyQuests(catalog.DailyQuestCount), time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// PickDailyQuests samples a uniform-random subset of the daily catalog.
func PickDailyQuests(n int) []model.QuestDefinition {
	defs := catalog.DailyQuests()
	picks := make([]model.QuestDefinition, len(defs))
	copy(picks, defs)
	rand.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	if n < len(picks) {
		picks = picks[:n]
	}
	return picks
}

func (s *QuestService) GetQuests(ctx context.Context, telegramID int64) ([]*model.QuestInstance, error) {
	if err := s.EnsureRotation(ctx, telegramID); err != nil {
		return nil, err
	}
	return s.repo.GetQuestInstances(ctx, telegramID)
}

func (s *QuestService) OnTaps(ctx context.Context, telegramID int64, taps int) {
	s.progress(ctx, telegramID, model.QuestEventTap, taps)
}

func (s *QuestService) OnPurchase(ctx context.Context, telegramID int64) {
	s.progress(ctx, telegramID, model.QuestEventPurchase, 1)
}

func (s *QuestService) OnPageVisit(ctx context.Context, telegramID int64) {
	s.progress(ctx, telegramID, model.QuestEventPageVisit, 1)
}

func (s *QuestService) progress(ctx context.Context, telegramID int64, event model.QuestEvent, delta int) {
	if delta <= 0 {
		return
	}
	if err := s.repo.IncrementQuestProgress(ctx, telegramID, event, delta); err != nil {
		logger.Logger().Warn("failed to advance quest progress",
			zap.Int64("telegram_id", telegramID),
			zap.String("event", string(event)),
			zap.Error(err))
	}
}

// Claim pays a completed quest exactly once. Completion and claiming are
// separate on purpose: the user sees a finished quest before collecting it.
func (s *QuestService) Claim(ctx context.Context, telegramID int64, questID string) error {
	def, ok := catalog.QuestByID(questID)
	if !ok {
		return ErrUnknownItem
	}

	return s.repo.ClaimQuest(ctx, telegramID, def.ID, def.Reward, time.Now().UTC())
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coindrop/internal/catalog"
	"coindrop/internal/model"
	"coindrop/internal/repository"
	"coindrop/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EconomyService is the only write surface over user balances. It
// validates what it can up front, delegates the atomic part to the
// repository, and fans out quest progress and achievement evaluation after
// a mutation commits.
type EconomyService struct {
	repo         EconomyRepository
	quests       *QuestService
	achievements *AchievementService
	notifier     RedemptionNotifier
}

func NewEconomyService(repo EconomyRepository, quests *QuestService, achievements *AchievementService, notifier RedemptionNotifier) *EconomyService {
	return &EconomyService{
		repo:         repo,
		quests:       quests,
		achievements: achievements,
		notifier:     notifier,
	}
}

func (s *EconomyService) RegisterUser(ctx context.Context, telegramID int64, username string, referrerID *int64) error {
	now := time.Now().UTC()

	err := s.repo.CreateUser(ctx, repository.NewUserParams{
		TelegramID: telegramID,
		Username:   username,
		ReferrerID: referrerID,
		TapPower:   catalog.BaseTapPower,
		MaxEnergy:  catalog.BaseMaxEnergy,
		Theme:      catalog.DefaultTheme,
		Now:        now,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.quests.EnsureRotation(ctx, telegramID); err != nil {
		logger.Logger().Warn("failed to seed daily quests",
			zap.Int64("telegram_id", telegramID), zap.Error(err))
	}

	// the referrer's milestone reward, if any, flows through the
	// achievement path rather than the signup transaction
	if referrerID != nil {
		s.evaluateAfterChange(ctx, *referrerID)
	}

	return nil
}

func (s *EconomyService) GetState(ctx context.Context, telegramID int64) (*model.UserState, error) {
	state, err := s.repo.GetUserState(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user state: %w", err)
	}
	return state, nil
}

// Tap applies a tap batch and returns the committed result. Quest progress
// and achievement checks run after the commit; their failure is logged,
// never surfaced, since the taps already happened.
func (s *EconomyService) Tap(ctx context.Context, telegramID int64, taps int) (*repository.TapResult, error) {
	if taps <= 0 {
		return nil, ErrInvalidAmount
	}

	result, err := s.repo.Tap(ctx, telegramID, taps, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.quests.OnTaps(ctx, telegramID, result.TapsApplied)
	s.evaluateAfterChange(ctx, telegramID)

	return result, nil
}

func (s *EconomyService) PurchaseBooster(ctx context.Context, telegramID int64, boosterID string) (*model.UserState, error) {
	def, ok := catalog.BoosterByID(boosterID)
	if !ok {
		return nil, ErrUnknownItem
	}

	state, err := s.repo.PurchaseBooster(ctx, telegramID, def, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.quests.OnPurchase(ctx, telegramID)
	s.evaluateAfterChange(ctx, telegramID)

	return state, nil
}

func (s *EconomyService) PurchaseTheme(ctx context.Context, telegramID int64, themeID string) error {
	def, ok := catalog.ThemeByID(themeID)
	if !ok {
		return ErrUnknownItem
	}

	err := s.repo.PurchaseTheme(ctx, telegramID, def, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.quests.OnPurchase(ctx, telegramID)
	s.evaluateAfterChange(ctx, telegramID)

	return nil
}

func (s *EconomyService) ActivateFrenzy(ctx context.Context, telegramID int64) error {
	return s.repo.ActivateFrenzy(ctx, telegramID, time.Now().UTC())
}

func (s *EconomyService) ActivateEnergySurge(ctx context.Context, telegramID int64) error {
	return s.repo.ActivateEnergySurge(ctx, telegramID, time.Now().UTC())
}

// RefreshOfflineBonus recomputes the claimable away-time credit at session
// start and returns it so the UI can offer it.
func (s *EconomyService) RefreshOfflineBonus(ctx context.Context, telegramID int64) (float64, error) {
	bonus, err := s.repo.RefreshOfflineBonus(ctx, telegramID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return bonus, nil
}

func (s *EconomyService) ClaimOfflineBonus(ctx context.Context, telegramID int64) (float64, error) {
	claimed, err := s.repo.ClaimOfflineBonus(ctx, telegramID, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}

	s.evaluateAfterChange(ctx, telegramID)
	return claimed, nil
}

func (s *EconomyService) SubmitRedemption(ctx context.Context, telegramID int64, amount float64, method, details string) (*model.TransactionRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if amount < catalog.MinRedeemAmount {
		return nil, ErrBelowMinimum
	}

	rec, err := s.repo.SubmitRedemption(ctx, telegramID, amount, method, details, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.notifier != nil {
		state, stateErr := s.repo.GetUserState(ctx, telegramID)
		username := ""
		if stateErr == nil {
			username = state.Username
		}
		s.notifier.RedemptionSubmitted(username, rec)
	}

	return rec, nil
}

func (s *EconomyService) ResolveRedemption(ctx context.Context, adminID int64, txID uuid.UUID, approve bool, note string) (*model.TransactionRecord, error) {
	return s.repo.ResolveRedemption(ctx, adminID, txID, approve, note, time.Now().UTC())
}

func (s *EconomyService) Transfer(ctx context.Context, fromID, toID int64, amount float64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	err := s.repo.Transfer(ctx, fromID, toID, amount, time.Now().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return nil
}

func (s *EconomyService) GetTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.TransactionRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListTransactions(ctx, telegramID, limit)
}

func (s *EconomyService) GetPendingRedemptions(ctx context.Context) ([]*model.TransactionRecord, error) {
	return s.repo.ListPendingRedemptions(ctx)
}

func (s *EconomyService) GetLeaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	entries, err := s.repo.GetTopUsers(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	return entries, nil
}

// evaluateAfterChange re-runs the achievement rules against fresh state.
// Already-claimed conflicts are expected races and stay silent.
func (s *EconomyService) evaluateAfterChange(ctx context.Context, telegramID int64) {
	if s.achievements == nil {
		return
	}
	if err := s.achievements.Evaluate(ctx, telegramID); err != nil {
		logger.Logger().Warn("achievement evaluation failed",
			zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
}

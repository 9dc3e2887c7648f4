package service

import (
	"context"
	"errors"
	"time"

	"coindrop/internal/model"
	"coindrop/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrSelfTransfer  = errors.New("cannot transfer to yourself")
	ErrBelowMinimum  = errors.New("amount below redemption minimum")
	ErrUnknownItem   = errors.New("unknown catalog item")
)

type Service struct {
	*EconomyService
	*QuestService
	*AchievementService
}

func NewService(economy *EconomyService, quests *QuestService, achievements *AchievementService) *Service {
	return &Service{
		EconomyService:     economy,
		QuestService:       quests,
		AchievementService: achievements,
	}
}

// EconomyRepository is the ledger's storage contract. Every method that
// mutates balance is a single atomic transaction in the implementation.
type EconomyRepository interface {
	CreateUser(ctx context.Context, p repository.NewUserParams) error
	GetUserState(ctx context.Context, telegramID int64) (*model.UserState, error)
	GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	Tap(ctx context.Context, telegramID int64, taps int, now time.Time) (*repository.TapResult, error)
	PurchaseBooster(ctx context.Context, telegramID int64, def model.BoosterDefinition, now time.Time) (*model.UserState, error)
	PurchaseTheme(ctx context.Context, telegramID int64, def model.ThemeDefinition, now time.Time) error
	ActivateFrenzy(ctx context.Context, telegramID int64, now time.Time) error
	ActivateEnergySurge(ctx context.Context, telegramID int64, now time.Time) error
	RefreshOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error)
	ClaimOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error)
	GrantAchievement(ctx context.Context, telegramID int64, achievementID string, reward float64, kind model.TransactionKind, now time.Time) error
	SubmitRedemption(ctx context.Context, telegramID int64, amount float64, method, details string, now time.Time) (*model.TransactionRecord, error)
	ResolveRedemption(ctx context.Context, adminID int64, txID uuid.UUID, approve bool, note string, now time.Time) (*model.TransactionRecord, error)
	Transfer(ctx context.Context, fromID, toID int64, amount float64, now time.Time) error
	ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.TransactionRecord, error)
	ListPendingRedemptions(ctx context.Context) ([]*model.TransactionRecord, error)
}

type QuestRepository interface {
	GetQuestInstances(ctx context.Context, telegramID int64) ([]*model.QuestInstance, error)
	RotateDailyQuests(ctx context.Context, telegramID int64, picks []model.QuestDefinition, now time.Time) (bool, error)
	IncrementQuestProgress(ctx context.Context, telegramID int64, event model.QuestEvent, delta int) error
	ClaimQuest(ctx context.Context, telegramID int64, questID string, reward float64, now time.Time) error
}

// StateSubscriber is the push-based change feed the synchronizer consumes.
type StateSubscriber interface {
	SubscribeUserState(ctx context.Context, telegramID int64) (<-chan *model.UserState, error)
}

// RedemptionNotifier alerts moderators about new payout requests.
// Implementations are best-effort; failures never reach the ledger.
type RedemptionNotifier interface {
	RedemptionSubmitted(username string, rec *model.TransactionRecord)
}

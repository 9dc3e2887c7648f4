package mocks

import (
	"context"
	"time"

	"coindrop/internal/model"
	"coindrop/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockEconomyRepository struct {
	mock.Mock
}

func (m *MockEconomyRepository) CreateUser(ctx context.Context, p repository.NewUserParams) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockEconomyRepository) GetUserState(ctx context.Context, telegramID int64) (*model.UserState, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserState), args.Error(1)
}

func (m *MockEconomyRepository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.LeaderboardEntry), args.Error(1)
}

func (m *MockEconomyRepository) Tap(ctx context.Context, telegramID int64, taps int, now time.Time) (*repository.TapResult, error) {
	args := m.Called(ctx, telegramID, taps, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.TapResult), args.Error(1)
}

func (m *MockEconomyRepository) PurchaseBooster(ctx context.Context, telegramID int64, def model.BoosterDefinition, now time.Time) (*model.UserState, error) {
	args := m.Called(ctx, telegramID, def, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserState), args.Error(1)
}

func (m *MockEconomyRepository) PurchaseTheme(ctx context.Context, telegramID int64, def model.ThemeDefinition, now time.Time) error {
	args := m.Called(ctx, telegramID, def, now)
	return args.Error(0)
}

func (m *MockEconomyRepository) ActivateFrenzy(ctx context.Context, telegramID int64, now time.Time) error {
	args := m.Called(ctx, telegramID, now)
	return args.Error(0)
}

func (m *MockEconomyRepository) ActivateEnergySurge(ctx context.Context, telegramID int64, now time.Time) error {
	args := m.Called(ctx, telegramID, now)
	return args.Error(0)
}

func (m *MockEconomyRepository) RefreshOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error) {
	args := m.Called(ctx, telegramID, now)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockEconomyRepository) ClaimOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error) {
	args := m.Called(ctx, telegramID, now)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockEconomyRepository) GrantAchievement(ctx context.Context, telegramID int64, achievementID string, reward float64, kind model.TransactionKind, now time.Time) error {
	args := m.Called(ctx, telegramID, achievementID, reward, kind, now)
	return args.Error(0)
}

func (m *MockEconomyRepository) SubmitRedemption(ctx context.Context, telegramID int64, amount float64, method, details string, now time.Time) (*model.TransactionRecord, error) {
	args := m.Called(ctx, telegramID, amount, method, details, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionRecord), args.Error(1)
}

func (m *MockEconomyRepository) ResolveRedemption(ctx context.Context, adminID int64, txID uuid.UUID, approve bool, note string, now time.Time) (*model.TransactionRecord, error) {
	args := m.Called(ctx, adminID, txID, approve, note, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TransactionRecord), args.Error(1)
}

func (m *MockEconomyRepository) Transfer(ctx context.Context, fromID, toID int64, amount float64, now time.Time) error {
	args := m.Called(ctx, fromID, toID, amount, now)
	return args.Error(0)
}

func (m *MockEconomyRepository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.TransactionRecord, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TransactionRecord), args.Error(1)
}

func (m *MockEconomyRepository) ListPendingRedemptions(ctx context.Context) ([]*model.TransactionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.TransactionRecord), args.Error(1)
}

type MockQuestRepository struct {
	mock.Mock
}

func (m *MockQuestRepository) GetQuestInstances(ctx context.Context, telegramID int64) ([]*model.QuestInstance, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QuestInstance), args.Error(1)
}

func (m *MockQuestRepository) RotateDailyQuests(ctx context.Context, telegramID int64, picks []model.QuestDefinition, now time.Time) (bool, error) {
	args := m.Called(ctx, telegramID, picks, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuestRepository) IncrementQuestProgress(ctx context.Context, telegramID int64, event model.QuestEvent, delta int) error {
	args := m.Called(ctx, telegramID, event, delta)
	return args.Error(0)
}

func (m *MockQuestRepository) ClaimQuest(ctx context.Context, telegramID int64, questID string, reward float64, now time.Time) error {
	args := m.Called(ctx, telegramID, questID, reward, now)
	return args.Error(0)
}

type MockStateSubscriber struct {
	mock.Mock
}

func (m *MockStateSubscriber) SubscribeUserState(ctx context.Context, telegramID int64) (<-chan *model.UserState, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan *model.UserState), args.Error(1)
}

type MockRedemptionNotifier struct {
	mock.Mock
}

func (m *MockRedemptionNotifier) RedemptionSubmitted(username string, rec *model.TransactionRecord) {
	m.Called(username, rec)
}

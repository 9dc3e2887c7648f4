package service

import (
	"context"
	"os"
	"testing"

	"coindrop/internal/model"
	"coindrop/internal/repository"
	"coindrop/internal/service/mocks"
	"coindrop/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestEconomyService_Tap(t *testing.T) {
	tests := []struct {
		name           string
		telegramID     int64
		taps           int
		mockSetup      func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository)
		expectedError  error
		expectedResult func(*testing.T, *repository.TapResult)
	}{
		{
			name:          "Zero taps rejected",
			telegramID:    123,
			taps:          0,
			mockSetup:     func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Negative taps rejected",
			telegramID:    123,
			taps:          -5,
			mockSetup:     func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:       "User not found",
			telegramID: 123,
			taps:       1,
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("Tap", mock.Anything, int64(123), 1, mock.Anything).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name:       "Out of energy",
			telegramID: 124,
			taps:       1,
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("Tap", mock.Anything, int64(124), 1, mock.Anything).
					Return(nil, repository.ErrOutOfEnergy)
			},
			expectedError: repository.ErrOutOfEnergy,
		},
		{
			name:       "First tap earns base power",
			telegramID: 125,
			taps:       1,
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("Tap", mock.Anything, int64(125), 1, mock.Anything).
					Return(&repository.TapResult{
						State: &model.UserState{
							TelegramID:     125,
							Balance:        0.1,
							LifetimeEarned: 0.1,
							CurrentEnergy:  99,
						},
						TapsApplied: 1,
						Earned:      0.1,
					}, nil)

				quests.On("IncrementQuestProgress", mock.Anything, int64(125), model.QuestEventTap, 1).
					Return(nil)
			},
			expectedResult: func(t *testing.T, result *repository.TapResult) {
				assert.Equal(t, 1, result.TapsApplied)
				assert.InDelta(t, 0.1, result.Earned, 1e-9)
				assert.InDelta(t, 0.1, result.State.Balance, 1e-9)
			},
		},
		{
			name:       "Batch truncated to available energy",
			telegramID: 126,
			taps:       50,
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("Tap", mock.Anything, int64(126), 50, mock.Anything).
					Return(&repository.TapResult{
						State: &model.UserState{
							TelegramID:    126,
							Balance:       3.0,
							CurrentEnergy: 0,
						},
						TapsApplied: 30,
						Earned:      3.0,
					}, nil)

				quests.On("IncrementQuestProgress", mock.Anything, int64(126), model.QuestEventTap, 30).
					Return(nil)
			},
			expectedResult: func(t *testing.T, result *repository.TapResult) {
				assert.Equal(t, 30, result.TapsApplied)
				assert.Zero(t, result.State.CurrentEnergy)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockEconomyRepository{}
			mockQuests := &mocks.MockQuestRepository{}
			tt.mockSetup(mockRepo, mockQuests)

			svc := NewEconomyService(mockRepo, NewQuestService(mockQuests), nil, nil)

			result, err := svc.Tap(context.Background(), tt.telegramID, tt.taps)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, result)
			if tt.expectedResult != nil {
				tt.expectedResult(t, result)
			}

			mockRepo.AssertExpectations(t)
			mockQuests.AssertExpectations(t)
		})
	}
}

func TestEconomyService_PurchaseBooster(t *testing.T) {
	tests := []struct {
		name          string
		telegramID    int64
		boosterID     string
		mockSetup     func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository)
		expectedError error
	}{
		{
			name:          "Unknown booster",
			telegramID:    123,
			boosterID:     "quantum_clicker",
			mockSetup:     func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {},
			expectedError: ErrUnknownItem,
		},
		{
			name:       "Insufficient funds",
			telegramID: 123,
			boosterID:  "power_glove",
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("PurchaseBooster", mock.Anything, int64(123),
					mock.MatchedBy(func(def model.BoosterDefinition) bool { return def.ID == "power_glove" }),
					mock.Anything).
					Return(nil, repository.ErrInsufficientFunds)
			},
			expectedError: repository.ErrInsufficientFunds,
		},
		{
			name:       "Max level reached",
			telegramID: 124,
			boosterID:  "reactor_core",
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("PurchaseBooster", mock.Anything, int64(124),
					mock.MatchedBy(func(def model.BoosterDefinition) bool { return def.ID == "reactor_core" }),
					mock.Anything).
					Return(nil, repository.ErrMaxLevelReached)
			},
			expectedError: repository.ErrMaxLevelReached,
		},
		{
			name:       "Successful purchase advances purchase quests",
			telegramID: 125,
			boosterID:  "power_glove",
			mockSetup: func(repo *mocks.MockEconomyRepository, quests *mocks.MockQuestRepository) {
				repo.On("PurchaseBooster", mock.Anything, int64(125),
					mock.MatchedBy(func(def model.BoosterDefinition) bool { return def.ID == "power_glove" }),
					mock.Anything).
					Return(&model.UserState{
						TelegramID:  125,
						Balance:     50,
						TapPower:    0.2,
						BoostLevels: map[string]int{"power_glove": 1},
					}, nil)

				quests.On("IncrementQuestProgress", mock.Anything, int64(125), model.QuestEventPurchase, 1).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockEconomyRepository{}
			mockQuests := &mocks.MockQuestRepository{}
			tt.mockSetup(mockRepo, mockQuests)

			svc := NewEconomyService(mockRepo, NewQuestService(mockQuests), nil, nil)

			state, err := svc.PurchaseBooster(context.Background(), tt.telegramID, tt.boosterID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, state)

			mockRepo.AssertExpectations(t)
			mockQuests.AssertExpectations(t)
		})
	}
}

func TestEconomyService_Transfer(t *testing.T) {
	tests := []struct {
		name          string
		fromID        int64
		toID          int64
		amount        float64
		mockSetup     func(repo *mocks.MockEconomyRepository)
		expectedError error
	}{
		{
			name:          "Zero amount",
			fromID:        1,
			toID:          2,
			amount:        0,
			mockSetup:     func(repo *mocks.MockEconomyRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Negative amount",
			fromID:        1,
			toID:          2,
			amount:        -10,
			mockSetup:     func(repo *mocks.MockEconomyRepository) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Self transfer",
			fromID:        1,
			toID:          1,
			amount:        10,
			mockSetup:     func(repo *mocks.MockEconomyRepository) {},
			expectedError: ErrSelfTransfer,
		},
		{
			name:   "Recipient not found",
			fromID: 1,
			toID:   2,
			amount: 10,
			mockSetup: func(repo *mocks.MockEconomyRepository) {
				repo.On("Transfer", mock.Anything, int64(1), int64(2), 10.0, mock.Anything).
					Return(repository.ErrRecipientNotFound)
			},
			expectedError: repository.ErrRecipientNotFound,
		},
		{
			name:   "Insufficient funds",
			fromID: 1,
			toID:   2,
			amount: 10,
			mockSetup: func(repo *mocks.MockEconomyRepository) {
				repo.On("Transfer", mock.Anything, int64(1), int64(2), 10.0, mock.Anything).
					Return(repository.ErrInsufficientFunds)
			},
			expectedError: repository.ErrInsufficientFunds,
		},
		{
			name:   "Successful transfer",
			fromID: 1,
			toID:   2,
			amount: 10,
			mockSetup: func(repo *mocks.MockEconomyRepository) {
				repo.On("Transfer", mock.Anything, int64(1), int64(2), 10.0, mock.Anything).
					Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockEconomyRepository{}
			tt.mockSetup(mockRepo)

			svc := NewEconomyService(mockRepo, NewQuestService(&mocks.MockQuestRepository{}), nil, nil)

			err := svc.Transfer(context.Background(), tt.fromID, tt.toID, tt.amount)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestEconomyService_SubmitRedemption(t *testing.T) {
	tests := []struct {
		name          string
		telegramID    int64
		amount        float64
		mockSetup     func(repo *mocks.MockEconomyRepository, notifier *mocks.MockRedemptionNotifier)
		expectedError error
	}{
		{
			name:          "Zero amount",
			telegramID:    123,
			amount:        0,
			mockSetup:     func(repo *mocks.MockEconomyRepository, notifier *mocks.MockRedemptionNotifier) {},
			expectedError: ErrInvalidAmount,
		},
		{
			name:          "Below redemption minimum",
			telegramID:    123,
			amount:        999,
			mockSetup:     func(repo *mocks.MockEconomyRepository, notifier *mocks.MockRedemptionNotifier) {},
			expectedError: ErrBelowMinimum,
		},
		{
			name:       "Insufficient funds",
			telegramID: 123,
			amount:     1000,
			mockSetup: func(repo *mocks.MockEconomyRepository, notifier *mocks.MockRedemptionNotifier) {
				repo.On("SubmitRedemption", mock.Anything, int64(123), 1000.0, "bank", "acct-1", mock.Anything).
					Return(nil, repository.ErrInsufficientFunds)
			},
			expectedError: repository.ErrInsufficientFunds,
		},
		{
			name:       "Successful submission notifies moderators",
			telegramID: 124,
			amount:     1500,
			mockSetup: func(repo *mocks.MockEconomyRepository, notifier *mocks.MockRedemptionNotifier) {
				rec := &model.TransactionRecord{
					UserTelegramID: 124,
					Amount:         -1500,
					Kind:           model.TxRedeem,
					Status:         model.TxPending,
				}

				repo.On("SubmitRedemption", mock.Anything, int64(124), 1500.0, "bank", "acct-1", mock.Anything).
					Return(rec, nil)
				repo.On("GetUserState", mock.Anything, int64(124)).
					Return(&model.UserState{TelegramID: 124, Username: "alice"}, nil)

				notifier.On("RedemptionSubmitted", "alice", rec).Return()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockEconomyRepository{}
			mockNotifier := &mocks.MockRedemptionNotifier{}
			tt.mockSetup(mockRepo, mockNotifier)

			svc := NewEconomyService(mockRepo, NewQuestService(&mocks.MockQuestRepository{}), nil, mockNotifier)

			rec, err := svc.SubmitRedemption(context.Background(), tt.telegramID, tt.amount, "bank", "acct-1")

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.NotNil(t, rec)
			assert.Equal(t, model.TxPending, rec.Status)

			mockRepo.AssertExpectations(t)
			mockNotifier.AssertExpectations(t)
		})
	}
}

func TestEconomyService_ClaimOfflineBonus(t *testing.T) {
	tests := []struct {
		name          string
		telegramID    int64
		mockSetup     func(repo *mocks.MockEconomyRepository)
		expectedBonus float64
		expectedError error
	}{
		{
			name:       "Nothing pending",
			telegramID: 123,
			mockSetup: func(repo *mocks.MockEconomyRepository) {
				repo.On("ClaimOfflineBonus", mock.Anything, int64(123), mock.Anything).
					Return(0.0, repository.ErrNothingToClaim)
			},
			expectedError: repository.ErrNothingToClaim,
		},
		{
			name:       "Claims the pending credit",
			telegramID: 124,
			mockSetup: func(repo *mocks.MockEconomyRepository) {
				repo.On("ClaimOfflineBonus", mock.Anything, int64(124), mock.Anything).
					Return(216.0, nil)
			},
			expectedBonus: 216.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mocks.MockEconomyRepository{}
			tt.mockSetup(mockRepo)

			svc := NewEconomyService(mockRepo, NewQuestService(&mocks.MockQuestRepository{}), nil, nil)

			bonus, err := svc.ClaimOfflineBonus(context.Background(), tt.telegramID)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}

			assert.NoError(t, err)
			assert.InDelta(t, tt.expectedBonus, bonus, 1e-9)

			mockRepo.AssertExpectations(t)
		})
	}
}

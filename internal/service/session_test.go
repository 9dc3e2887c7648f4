package service

import (
	"testing"
	"time"

	"coindrop/internal/model"
	"coindrop/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestManager(t *testing.T, stream chan *model.UserState) *SessionManager {
	t.Helper()

	subscriber := &mocks.MockStateSubscriber{}
	subscriber.On("SubscribeUserState", mock.Anything, mock.Anything).
		Return((<-chan *model.UserState)(stream), nil)

	return NewSessionManager(subscriber)
}

func TestSession_ApplyTapLocal(t *testing.T) {
	now := time.Now().UTC()
	surgeEnd := now.Add(10 * time.Second)

	tests := []struct {
		name           string
		initial        model.UserState
		taps           int
		expectedEnergy float64
	}{
		{
			name: "Taps spend energy immediately",
			initial: model.UserState{
				CurrentEnergy:    10,
				MaxEnergy:        100,
				Balance:          5,
				LastEnergyUpdate: now,
			},
			taps:           3,
			expectedEnergy: 7,
		},
		{
			name: "Energy floors at zero",
			initial: model.UserState{
				CurrentEnergy:    2,
				MaxEnergy:        100,
				LastEnergyUpdate: now,
			},
			taps:           10,
			expectedEnergy: 0,
		},
		{
			name: "Surge makes taps free",
			initial: model.UserState{
				CurrentEnergy:      10,
				MaxEnergy:          100,
				EnergySurgeEndTime: &surgeEnd,
				LastEnergyUpdate:   now,
			},
			taps:           5,
			expectedEnergy: 10,
		},
		{
			name: "Non-positive taps ignored",
			initial: model.UserState{
				CurrentEnergy:    10,
				MaxEnergy:        100,
				LastEnergyUpdate: now,
			},
			taps:           0,
			expectedEnergy: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream := make(chan *model.UserState)
			manager := newTestManager(t, stream)

			session, err := manager.Open(1, tt.initial)
			assert.NoError(t, err)
			defer manager.Release(1, session)

			session.ApplyTapLocal(tt.taps)

			state := session.State()
			assert.InDelta(t, tt.expectedEnergy, state.CurrentEnergy, 1e-9)

			// speculation never touches the balance
			assert.Equal(t, tt.initial.Balance, state.Balance)
		})
	}
}

func TestSession_AuthoritativeSnapshotWins(t *testing.T) {
	now := time.Now().UTC()
	stream := make(chan *model.UserState, 1)
	manager := newTestManager(t, stream)

	session, err := manager.Open(42, model.UserState{
		TelegramID:       42,
		Balance:          0,
		CurrentEnergy:    100,
		MaxEnergy:        100,
		LastEnergyUpdate: now,
	})
	assert.NoError(t, err)
	defer manager.Release(42, session)

	// drift the mirror locally, then deliver the committed truth
	session.ApplyTapLocal(5)
	assert.InDelta(t, 95, session.State().CurrentEnergy, 1e-9)

	stream <- &model.UserState{
		TelegramID:       42,
		Balance:          0.5,
		CurrentEnergy:    97,
		MaxEnergy:        100,
		LastEnergyUpdate: now,
	}

	assert.Eventually(t, func() bool {
		state := session.State()
		return state.Balance == 0.5 && state.CurrentEnergy == 97
	}, time.Second, 5*time.Millisecond, "snapshot should replace the speculated mirror")
}

func TestSession_UpdatesStreamEmitsSnapshots(t *testing.T) {
	stream := make(chan *model.UserState, 1)
	manager := newTestManager(t, stream)

	session, err := manager.Open(7, model.UserState{TelegramID: 7})
	assert.NoError(t, err)
	defer manager.Release(7, session)

	stream <- &model.UserState{TelegramID: 7, Balance: 123}

	select {
	case snapshot := <-session.Updates():
		assert.Equal(t, int64(7), snapshot.TelegramID)
		assert.InDelta(t, 123, snapshot.Balance, 1e-9)
	case <-time.After(time.Second):
		t.Fatal("no snapshot emitted")
	}
}

func TestSession_UpdatesClosedOnRelease(t *testing.T) {
	stream := make(chan *model.UserState)
	manager := newTestManager(t, stream)

	session, err := manager.Open(7, model.UserState{TelegramID: 7})
	assert.NoError(t, err)

	manager.Release(7, session)

	// a consumer ranging over Updates must drain and stop, not hang
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-session.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("updates channel not closed after release")
		}
	}
}

func TestSessionManager_ReplacesExistingSession(t *testing.T) {
	subscriber := &mocks.MockStateSubscriber{}

	first := make(chan *model.UserState)
	second := make(chan *model.UserState)
	subscriber.On("SubscribeUserState", mock.Anything, int64(9)).
		Return((<-chan *model.UserState)(first), nil).Once()
	subscriber.On("SubscribeUserState", mock.Anything, int64(9)).
		Return((<-chan *model.UserState)(second), nil).Once()

	manager := NewSessionManager(subscriber)

	s1, err := manager.Open(9, model.UserState{TelegramID: 9})
	assert.NoError(t, err)

	// reconnecting tears the previous session down before Open returns
	s2, err := manager.Open(9, model.UserState{TelegramID: 9})
	assert.NoError(t, err)
	assert.NotSame(t, s1, s2)

	select {
	case <-s1.done:
	default:
		t.Fatal("previous session still running after replacement")
	}

	manager.Release(9, s2)
	subscriber.AssertExpectations(t)
}

func TestSessionManager_Shutdown(t *testing.T) {
	stream := make(chan *model.UserState)
	manager := newTestManager(t, stream)

	s1, err := manager.Open(1, model.UserState{TelegramID: 1})
	assert.NoError(t, err)
	s2, err := manager.Open(2, model.UserState{TelegramID: 2})
	assert.NoError(t, err)

	manager.Shutdown()

	for _, s := range []*Session{s1, s2} {
		select {
		case <-s.done:
		case <-time.After(time.Second):
			t.Fatal("session still running after shutdown")
		}
	}
}

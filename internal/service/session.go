package service

import (
	"context"
	"sync"
	"time"

	"coindrop/internal/catalog"
	"coindrop/internal/game"
	"coindrop/internal/model"
	"coindrop/pkg/logger"

	"go.uber.org/zap"
)

// Session is the optimistic in-memory mirror of one user's state. Two
// writers touch it: the local speculative path (taps and the 1-second
// energy tick, which only move energy and its timestamp) and the
// authoritative subscription stream, which overwrites the whole mirror.
// Balance is never speculated on; it only ever comes from the stream, so a
// rejected ledger transaction can never be masked by local drift.
type Session struct {
	userID int64

	mu     sync.RWMutex
	mirror model.UserState

	updates chan model.UserState
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

func newSession(userID int64, initial model.UserState, cancel context.CancelFunc) *Session {
	return &Session{
		userID:  userID,
		mirror:  initial,
		updates: make(chan model.UserState, 16),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

func (s *Session) run(ctx context.Context, stream <-chan *model.UserState) {
	defer close(s.done)
	// run is the only sender on updates; closing here unblocks consumers
	// ranging over Updates after the session stops
	defer close(s.updates)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case snapshot, ok := <-stream:
			if !ok {
				return
			}
			// server precedence: the authoritative snapshot replaces
			// everything the mirror held, speculated or not
			s.mu.Lock()
			s.mirror = *snapshot
			s.mu.Unlock()
			s.emit()

		case <-ticker.C:
			now := time.Now().UTC()
			s.mu.Lock()
			s.mirror.CurrentEnergy, s.mirror.LastEnergyUpdate = game.Regen(
				s.mirror.CurrentEnergy, s.mirror.MaxEnergy,
				s.mirror.LastEnergyUpdate, now,
				catalog.EnergyRegenPerSec, catalog.FullTankRefresh)
			s.mu.Unlock()
			s.emit()
		}
	}
}

func (s *Session) emit() {
	s.mu.RLock()
	snapshot := s.mirror
	s.mu.RUnlock()

	select {
	case s.updates <- snapshot:
	default:
		// consumer lagging, drop; the next tick resends
	}
}

// ApplyTapLocal speculatively spends energy for instant UI feedback before
// the ledger confirms. It touches only locally computed fields; the earned
// coins show up when the authoritative snapshot arrives.
func (s *Session) ApplyTapLocal(taps int) {
	if taps <= 0 {
		return
	}
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror.EnergySurgeActive(now) {
		return
	}
	s.mirror.CurrentEnergy -= float64(taps)
	if s.mirror.CurrentEnergy < 0 {
		s.mirror.CurrentEnergy = 0
	}
	s.mirror.LastEnergyUpdate = now
}

// State returns a copy of the current mirror.
func (s *Session) State() model.UserState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mirror
}

// Updates is the stream of mirror snapshots for the UI transport. The
// channel is closed when the session stops.
func (s *Session) Updates() <-chan model.UserState {
	return s.updates
}

// Close stops the tick loop and the subscription. Idempotent.
func (s *Session) Close() {
	s.once.Do(func() {
		s.cancel()
		<-s.done
	})
}

// SessionManager keeps at most one live session per user and tears the old
// one down when the same user reconnects.
type SessionManager struct {
	subscriber StateSubscriber

	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewSessionManager(subscriber StateSubscriber) *SessionManager {
	return &SessionManager{
		subscriber: subscriber,
		sessions:   make(map[int64]*Session),
	}
}

func (m *SessionManager) Open(userID int64, initial model.UserState) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := m.subscriber.SubscribeUserState(ctx, userID)
	if err != nil {
		cancel()
		return nil, err
	}

	session := newSession(userID, initial, cancel)
	go session.run(ctx, stream)

	m.mu.Lock()
	prev := m.sessions[userID]
	m.sessions[userID] = session
	m.mu.Unlock()

	if prev != nil {
		prev.Close()
		logger.Logger().Info("replaced existing session", zap.Int64("telegram_id", userID))
	}

	return session, nil
}

func (m *SessionManager) Release(userID int64, session *Session) {
	m.mu.Lock()
	if m.sessions[userID] == session {
		delete(m.sessions, userID)
	}
	m.mu.Unlock()

	session.Close()
}

// Shutdown closes every live session; used on server stop.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[int64]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// Package api wires the economy services to HTTP and websocket transports.
// Handlers translate typed service outcomes into status codes; they hold no
// game logic of their own.
package api

import (
	"errors"
	"net/http"
	"time"

	"coindrop/internal/model"
	"coindrop/internal/repository"
	"coindrop/internal/service"
)

// errorStatus maps a service or repository outcome onto an HTTP status and
// a stable error string for the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, service.ErrUnknownItem):
		return http.StatusNotFound, "unknown item"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient funds"
	case errors.Is(err, repository.ErrOutOfEnergy):
		return http.StatusConflict, "out of energy"
	case errors.Is(err, repository.ErrMaxLevelReached):
		return http.StatusConflict, "max level reached"
	case errors.Is(err, repository.ErrAlreadyUnlocked):
		return http.StatusConflict, "already unlocked"
	case errors.Is(err, repository.ErrAlreadyClaimed):
		return http.StatusConflict, "already claimed"
	case errors.Is(err, repository.ErrAlreadyResolved):
		return http.StatusConflict, "already resolved"
	case errors.Is(err, repository.ErrQuestNotCompleted):
		return http.StatusConflict, "quest not completed"
	case errors.Is(err, repository.ErrNothingToClaim):
		return http.StatusConflict, "nothing to claim"
	case errors.Is(err, repository.ErrBuffAlreadyActive):
		return http.StatusConflict, "buff already active"
	case errors.Is(err, service.ErrSelfTransfer):
		return http.StatusBadRequest, "cannot transfer to yourself"
	case errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest, "invalid amount"
	case errors.Is(err, service.ErrBelowMinimum):
		return http.StatusBadRequest, "amount below redemption minimum"
	case errors.Is(err, repository.ErrRecipientNotFound):
		return http.StatusBadRequest, "invalid recipient"
	}
	return http.StatusInternalServerError, "internal server error"
}

type stateResponse struct {
	TelegramID          int64          `json:"telegram_id"`
	Username            string         `json:"username"`
	Balance             float64        `json:"balance"`
	LifetimeEarned      float64        `json:"lifetime_earned"`
	TapPower            float64        `json:"tap_power"`
	CurrentEnergy       float64        `json:"current_energy"`
	MaxEnergy           float64        `json:"max_energy"`
	TapCountToday       int            `json:"tap_count_today"`
	BoostLevels         map[string]int `json:"boost_levels"`
	UnlockedThemes      []string       `json:"unlocked_themes"`
	ActiveTheme         string         `json:"active_theme"`
	Referrals           int            `json:"referrals"`
	PendingOfflineBonus float64        `json:"pending_offline_bonus"`
	FrenzyEndsIn        float64        `json:"frenzy_ends_in"`
	FrenzyMultiplier    float64        `json:"frenzy_multiplier"`
	SurgeEndsIn         float64        `json:"surge_ends_in"`
	Achievements        []string       `json:"achievements"`
}

func toStateResponse(state *model.UserState) stateResponse {
	now := time.Now().UTC()

	resp := stateResponse{
		TelegramID:          state.TelegramID,
		Username:            state.Username,
		Balance:             state.Balance,
		LifetimeEarned:      state.LifetimeEarned,
		TapPower:            state.TapPower,
		CurrentEnergy:       state.CurrentEnergy,
		MaxEnergy:           state.MaxEnergy,
		TapCountToday:       state.TapsToday(now),
		BoostLevels:         state.BoostLevels,
		UnlockedThemes:      state.UnlockedThemes,
		ActiveTheme:         state.ActiveTheme,
		Referrals:           state.Referrals,
		PendingOfflineBonus: state.PendingOfflineBonus,
		FrenzyMultiplier:    1,
		Achievements:        make([]string, 0, len(state.CompletedAchievements)),
	}

	if state.FrenzyActive(now) {
		resp.FrenzyEndsIn = state.FrenzyEndTime.Sub(now).Seconds()
		resp.FrenzyMultiplier = state.FrenzyMultiplier
	}
	if state.EnergySurgeActive(now) {
		resp.SurgeEndsIn = state.EnergySurgeEndTime.Sub(now).Seconds()
	}
	for id := range state.CompletedAchievements {
		resp.Achievements = append(resp.Achievements, id)
	}

	return resp
}

type transactionResponse struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Kind          string  `json:"kind"`
	Status        string  `json:"status"`
	Details       string  `json:"details"`
	PaymentMethod *string `json:"payment_method,omitempty"`
	CreatedAt     int64   `json:"created_at"`
	ResolvedAt    *int64  `json:"resolved_at,omitempty"`
}

func toTransactionResponse(rec *model.TransactionRecord) transactionResponse {
	resp := transactionResponse{
		ID:            rec.ID.String(),
		Amount:        rec.Amount,
		Kind:          string(rec.Kind),
		Status:        string(rec.Status),
		Details:       rec.Details,
		PaymentMethod: rec.PaymentMethod,
		CreatedAt:     rec.CreatedAt.Unix(),
	}
	if rec.ResolvedAt != nil {
		ts := rec.ResolvedAt.Unix()
		resp.ResolvedAt = &ts
	}
	return resp
}

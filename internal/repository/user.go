package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"coindrop/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type userRow struct {
	TelegramID          int64          `db:"telegram_id"`
	Username            string         `db:"username"`
	ReferrerID          *int64         `db:"referrer_id"`
	Referrals           int            `db:"referrals"`
	IsAdmin             bool           `db:"is_admin"`
	Balance             float64        `db:"balance"`
	LifetimeEarned      float64        `db:"lifetime_earned"`
	TapPower            float64        `db:"tap_power"`
	CurrentEnergy       float64        `db:"current_energy"`
	MaxEnergy           float64        `db:"max_energy"`
	LastEnergyUpdate    time.Time      `db:"last_energy_update"`
	TapCountToday       int            `db:"tap_count_today"`
	LastTapDate         *time.Time     `db:"last_tap_date"`
	BoostLevels         []byte         `db:"boost_levels"`
	UnlockedThemes      pq.StringArray `db:"unlocked_themes"`
	ActiveTheme         string         `db:"active_theme"`
	PendingOfflineBonus float64        `db:"pending_offline_bonus"`
	LastSeenAt          time.Time      `db:"last_seen_at"`
	FrenzyEndTime       *time.Time     `db:"frenzy_end_time"`
	FrenzyMultiplier    float64        `db:"frenzy_multiplier"`
	EnergySurgeEndTime  *time.Time     `db:"energy_surge_end_time"`
	RegistrationDate    time.Time      `db:"registration_date"`
}

func (u *userRow) toModel() (*model.UserState, error) {
	boosts := make(map[string]int)
	if len(u.BoostLevels) > 0 {
		if err := json.Unmarshal(u.BoostLevels, &boosts); err != nil {
			return nil, fmt.Errorf("failed to decode boost levels: %w", err)
		}
	}

	return &model.UserState{
		TelegramID:            u.TelegramID,
		Username:              u.Username,
		ReferrerID:            u.ReferrerID,
		Referrals:             u.Referrals,
		IsAdmin:               u.IsAdmin,
		Balance:               u.Balance,
		LifetimeEarned:        u.LifetimeEarned,
		TapPower:              u.TapPower,
		CurrentEnergy:         u.CurrentEnergy,
		MaxEnergy:             u.MaxEnergy,
		LastEnergyUpdate:      u.LastEnergyUpdate,
		TapCountToday:         u.TapCountToday,
		LastTapDate:           u.LastTapDate,
		BoostLevels:           boosts,
		UnlockedThemes:        u.UnlockedThemes,
		ActiveTheme:           u.ActiveTheme,
		CompletedAchievements: make(map[string]time.Time),
		PendingOfflineBonus:   u.PendingOfflineBonus,
		LastSeenAt:            u.LastSeenAt,
		FrenzyEndTime:         u.FrenzyEndTime,
		FrenzyMultiplier:      u.FrenzyMultiplier,
		EnergySurgeEndTime:    u.EnergySurgeEndTime,
		RegistrationDate:      u.RegistrationDate,
	}, nil
}

// NewUserParams seeds a fresh UserState row with catalog defaults.
type NewUserParams struct {
	TelegramID int64
	Username   string
	ReferrerID *int64
	TapPower   float64
	MaxEnergy  float64
	Theme      string
	Now        time.Time
}

// CreateUser inserts the user row and its quest-rotation row, and bumps the
// referrer's counter, all in one transaction. The referrer's monetary reward
// is not granted here; the referral-count achievement pays it out later.
func (r *Repository) CreateUser(ctx context.Context, p NewUserParams) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id":        p.TelegramID,
				"username":           p.Username,
				"referrer_id":        p.ReferrerID,
				"tap_power":          p.TapPower,
				"current_energy":     p.MaxEnergy,
				"max_energy":         p.MaxEnergy,
				"last_energy_update": p.Now,
				"unlocked_themes":    pq.StringArray{p.Theme},
				"active_theme":       p.Theme,
				"boost_levels":       []byte("{}"),
				"last_seen_at":       p.Now,
				"registration_date":  p.Now,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if p.ReferrerID != nil {
			updateQuery, updateArgs, err := squirrel.
				Update("users").
				Set("referrals", squirrel.Expr("referrals + 1")).
				Where(squirrel.Eq{"telegram_id": p.ReferrerID}).
				PlaceholderFormat(squirrel.Dollar).
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build referrer update query: %w", err)
			}

			_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
			if err != nil {
				return fmt.Errorf("failed to update referrer: %w", err)
			}

			if err := notifyUserState(ctx, tx, *p.ReferrerID); err != nil {
				return err
			}
		}

		rotationQuery, rotationArgs, err := squirrel.
			Insert("user_quest_rotations").
			SetMap(map[string]interface{}{
				"user_telegram_id": p.TelegramID,
				"last_rotated":     nil,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build quest rotation insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, rotationQuery, rotationArgs...)
		if err != nil {
			return fmt.Errorf("failed to insert quest rotation: %w", err)
		}

		return nil
	})
}

// GetUserState reads the full authoritative state, including the write-once
// achievement completions.
func (r *Repository) GetUserState(ctx context.Context, telegramID int64) (*model.UserState, error) {
	var row userRow
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	state, err := row.toModel()
	if err != nil {
		return nil, err
	}

	type achievementRow struct {
		AchievementID string    `db:"achievement_id"`
		CompletedAt   time.Time `db:"completed_at"`
	}

	achQuery, achArgs, err := squirrel.
		Select("achievement_id", "completed_at").
		From("completed_achievements").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var completed []achievementRow
	err = r.db.SelectContext(ctx, &completed, achQuery, achArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed achievements: %w", err)
	}

	for _, a := range completed {
		state.CompletedAchievements[a.AchievementID] = a.CompletedAt
	}

	return state, nil
}

// getUserForUpdate locks the user row for the rest of the transaction.
// Every precondition in the ledger validates against the value read here,
// never against a cached mirror.
func getUserForUpdate(ctx context.Context, tx *sqlx.Tx, telegramID int64) (*model.UserState, error) {
	var row userRow
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &row, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return row.toModel()
}

func updateUserTx(ctx context.Context, tx *sqlx.Tx, telegramID int64, changes map[string]interface{}) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(changes).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

func encodeBoostLevels(levels map[string]int) ([]byte, error) {
	data, err := json.Marshal(levels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode boost levels: %w", err)
	}
	return data, nil
}

// notifyUserState queues a change notification for the subscription feed.
// NOTIFY fires only on commit, so subscribers never observe aborted writes.
func notifyUserState(ctx context.Context, tx *sqlx.Tx, telegramID int64) error {
	_, err := tx.ExecContext(ctx, "SELECT pg_notify('user_state', $1)", strconv.FormatInt(telegramID, 10))
	if err != nil {
		return fmt.Errorf("failed to notify user state change: %w", err)
	}
	return nil
}

func (r *Repository) GetTopUsers(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error) {
	type topRow struct {
		TelegramID int64   `db:"telegram_id"`
		Username   string  `db:"username"`
		Balance    float64 `db:"balance"`
		Referrals  int     `db:"referrals"`
	}

	query, args, err := squirrel.
		Select("telegram_id", "username", "balance", "referrals").
		From("users").
		OrderBy("balance DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []topRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = &model.LeaderboardEntry{
			TelegramID: row.TelegramID,
			Username:   row.Username,
			Balance:    row.Balance,
			Referrals:  row.Referrals,
		}
	}

	return entries, nil
}

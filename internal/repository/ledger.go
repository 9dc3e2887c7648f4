package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"coindrop/internal/catalog"
	"coindrop/internal/game"
	"coindrop/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

func insertTransactionTx(ctx context.Context, tx *sqlx.Tx, rec *model.TransactionRecord) error {
	query, args, err := squirrel.
		Insert("transactions").
		SetMap(map[string]interface{}{
			"id":               rec.ID,
			"user_telegram_id": rec.UserTelegramID,
			"amount":           rec.Amount,
			"kind":             rec.Kind,
			"status":           rec.Status,
			"details":          rec.Details,
			"payment_method":   rec.PaymentMethod,
			"payment_details":  rec.PaymentDetails,
			"created_at":       rec.CreatedAt,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build transaction insert query: %w", err)
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert transaction record: %w", err)
	}

	return nil
}

// TapResult carries the state committed by a tap batch.
type TapResult struct {
	State       *model.UserState
	TapsApplied int
	Earned      float64
}

// Tap applies a batch of taps. Energy is regenerated from the stored
// timestamp first, then each tap costs one energy (zero while an energy
// surge runs) and earns tapPower times the active multiplier. The batch is
// truncated to the energy actually available.
func (r *Repository) Tap(ctx context.Context, telegramID int64, taps int, now time.Time) (*TapResult, error) {
	var result TapResult

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		energy, ts := game.Regen(user.CurrentEnergy, user.MaxEnergy,
			user.LastEnergyUpdate, now, catalog.EnergyRegenPerSec, catalog.FullTankRefresh)

		applied := taps
		surge := user.EnergySurgeActive(now)
		if !surge {
			available := int(math.Floor(energy))
			if available < 1 {
				return ErrOutOfEnergy
			}
			if applied > available {
				applied = available
			}
			energy -= float64(applied)
		}

		earned := user.TapPower * user.ActiveMultiplier(now) * float64(applied)

		tapsToday := user.TapsToday(now) + applied

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":            squirrel.Expr("balance + ?", earned),
			"lifetime_earned":    squirrel.Expr("lifetime_earned + ?", earned),
			"current_energy":     energy,
			"last_energy_update": ts,
			"tap_count_today":    tapsToday,
			"last_tap_date":      now,
			"last_seen_at":       now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         earned,
			Kind:           model.TxTap,
			Status:         model.TxCompleted,
			Details:        fmt.Sprintf("%d taps", applied),
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		if err := notifyUserState(ctx, tx, telegramID); err != nil {
			return err
		}

		updated := *user
		updated.Balance += earned
		updated.LifetimeEarned += earned
		updated.CurrentEnergy = energy
		updated.LastEnergyUpdate = ts
		updated.TapCountToday = tapsToday
		updated.LastTapDate = &now
		result = TapResult{State: &updated, TapsApplied: applied, Earned: earned}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// BoosterCost is the price of the next level given the owned level.
func BoosterCost(base float64, level int) float64 {
	return math.Round(base * math.Pow(catalog.BoosterCostGrowth, float64(level)))
}

// PurchaseBooster debits the level cost and applies the booster's stat
// effect. A max-energy booster also raises current energy by the same
// delta, capped at the overfill factor.
func (r *Repository) PurchaseBooster(ctx context.Context, telegramID int64, def model.BoosterDefinition, now time.Time) (*model.UserState, error) {
	var updated *model.UserState

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		level := user.BoostLevels[def.ID]
		if level >= def.MaxLevel {
			return ErrMaxLevelReached
		}

		cost := BoosterCost(def.BaseCost, level)
		if user.Balance < cost {
			return ErrInsufficientFunds
		}

		tapPower := user.TapPower
		maxEnergy := user.MaxEnergy
		energy := user.CurrentEnergy
		switch def.Effect {
		case model.EffectTapPower:
			tapPower += def.Value
		case model.EffectMaxEnergy:
			maxEnergy += def.Value
			energy += def.Value
			if limit := maxEnergy * catalog.EnergyOverfillCap; energy > limit {
				energy = limit
			}
		}

		levels := make(map[string]int, len(user.BoostLevels)+1)
		for k, v := range user.BoostLevels {
			levels[k] = v
		}
		levels[def.ID] = level + 1

		encoded, err := encodeBoostLevels(levels)
		if err != nil {
			return err
		}

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":        squirrel.Expr("balance - ?", cost),
			"tap_power":      tapPower,
			"max_energy":     maxEnergy,
			"current_energy": energy,
			"boost_levels":   encoded,
			"last_seen_at":   now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         -cost,
			Kind:           model.TxBooster,
			Status:         model.TxCompleted,
			Details:        fmt.Sprintf("%s level %d", def.ID, level+1),
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		if err := notifyUserState(ctx, tx, telegramID); err != nil {
			return err
		}

		u := *user
		u.Balance -= cost
		u.TapPower = tapPower
		u.MaxEnergy = maxEnergy
		u.CurrentEnergy = energy
		u.BoostLevels = levels
		updated = &u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// PurchaseTheme debits the theme cost, adds it to the unlocked set and
// makes it active.
func (r *Repository) PurchaseTheme(ctx context.Context, telegramID int64, def model.ThemeDefinition, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		for _, id := range user.UnlockedThemes {
			if id == def.ID {
				return ErrAlreadyUnlocked
			}
		}
		if user.Balance < def.Cost {
			return ErrInsufficientFunds
		}

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":         squirrel.Expr("balance - ?", def.Cost),
			"unlocked_themes": squirrel.Expr("array_append(unlocked_themes, ?)", def.ID),
			"active_theme":    def.ID,
			"last_seen_at":    now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         -def.Cost,
			Kind:           model.TxTheme,
			Status:         model.TxCompleted,
			Details:        def.ID,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
}

// ActivateFrenzy buys the tap-multiplier buff. The energy surge, if
// running, is cleared: the two buffs are mutually exclusive.
func (r *Repository) ActivateFrenzy(ctx context.Context, telegramID int64, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		if user.FrenzyActive(now) {
			return ErrBuffAlreadyActive
		}
		if user.Balance < catalog.FrenzyCost {
			return ErrInsufficientFunds
		}

		end := now.Add(catalog.FrenzyDuration)
		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":               squirrel.Expr("balance - ?", catalog.FrenzyCost),
			"frenzy_end_time":       end,
			"frenzy_multiplier":     catalog.FrenzyMultiplier,
			"energy_surge_end_time": nil,
			"last_seen_at":          now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         -catalog.FrenzyCost,
			Kind:           model.TxBuff,
			Status:         model.TxCompleted,
			Details:        "frenzy",
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
}

// ActivateEnergySurge buys the free-taps buff and clears any frenzy.
func (r *Repository) ActivateEnergySurge(ctx context.Context, telegramID int64, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		if user.EnergySurgeActive(now) {
			return ErrBuffAlreadyActive
		}
		if user.Balance < catalog.SurgeCost {
			return ErrInsufficientFunds
		}

		end := now.Add(catalog.SurgeDuration)
		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":               squirrel.Expr("balance - ?", catalog.SurgeCost),
			"energy_surge_end_time": end,
			"frenzy_end_time":       nil,
			"frenzy_multiplier":     1,
			"last_seen_at":          now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         -catalog.SurgeCost,
			Kind:           model.TxBuff,
			Status:         model.TxCompleted,
			Details:        "energy_surge",
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
}

// RefreshOfflineBonus recomputes the claimable away-time credit from the
// freshly read last-seen timestamp and stores it on the row. The bonus is
// surfaced to the user, not applied; ClaimOfflineBonus moves it to the
// balance.
func (r *Repository) RefreshOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error) {
	var bonus float64

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		earned := game.OfflineEarnings(user.LastSeenAt, now, user.TapPower,
			catalog.EnergyRegenPerSec, game.OfflineParams{
				MinEligibleSeconds: catalog.OfflineMinEligibleSeconds,
				MaxEligibleHours:   catalog.OfflineMaxEligibleHours,
				Efficiency:         catalog.OfflineEfficiency,
			})

		changes := map[string]interface{}{
			"last_seen_at": now,
		}
		if earned > 0 {
			changes["pending_offline_bonus"] = earned
		}

		if err := updateUserTx(ctx, tx, telegramID, changes); err != nil {
			return err
		}

		if earned > 0 {
			bonus = earned
		} else {
			bonus = user.PendingOfflineBonus
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return bonus, nil
}

// ClaimOfflineBonus credits the pending away-time bonus exactly once.
func (r *Repository) ClaimOfflineBonus(ctx context.Context, telegramID int64, now time.Time) (float64, error) {
	var claimed float64

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		if user.PendingOfflineBonus <= 0 {
			return ErrNothingToClaim
		}
		claimed = user.PendingOfflineBonus

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":               squirrel.Expr("balance + ?", claimed),
			"lifetime_earned":       squirrel.Expr("lifetime_earned + ?", claimed),
			"pending_offline_bonus": 0,
			"last_seen_at":          now,
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         claimed,
			Kind:           model.TxOfflineBonus,
			Status:         model.TxCompleted,
			Details:        "offline earnings",
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
	if err != nil {
		return 0, err
	}

	return claimed, nil
}

// GrantAchievement credits a milestone reward at most once. The write-once
// flag is the completed_achievements primary key: a concurrent grant sees
// the conflict and aborts with ErrAlreadyClaimed, so double evaluation from
// two devices cannot double-pay.
func (r *Repository) GrantAchievement(ctx context.Context, telegramID int64, achievementID string, reward float64, kind model.TransactionKind, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO completed_achievements (user_telegram_id, achievement_id, completed_at)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (user_telegram_id, achievement_id) DO NOTHING`,
			telegramID, achievementID, now)
		if err != nil {
			return fmt.Errorf("failed to insert achievement completion: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyClaimed
		}

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":         squirrel.Expr("balance + ?", reward),
			"lifetime_earned": squirrel.Expr("lifetime_earned + ?", reward),
		})
		if err != nil {
			return err
		}

		err = insertTransactionTx(ctx, tx, &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: telegramID,
			Amount:         reward,
			Kind:           kind,
			Status:         model.TxCompleted,
			Details:        achievementID,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
}

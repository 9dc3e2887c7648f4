package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"coindrop/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type questInstanceRow struct {
	UserTelegramID int64     `db:"user_telegram_id"`
	QuestID        string    `db:"quest_id"`
	Event          string    `db:"event"`
	Progress       int       `db:"progress"`
	Target         int       `db:"target"`
	Completed      bool      `db:"completed"`
	Claimed        bool      `db:"claimed"`
	RotatedAt      time.Time `db:"rotated_at"`
}

func (q *questInstanceRow) toModel() *model.QuestInstance {
	return &model.QuestInstance{
		UserTelegramID: q.UserTelegramID,
		QuestID:        q.QuestID,
		Event:          model.QuestEvent(q.Event),
		Progress:       q.Progress,
		Target:         q.Target,
		Completed:      q.Completed,
		Claimed:        q.Claimed,
		RotatedAt:      q.RotatedAt,
	}
}

func (r *Repository) GetQuestInstances(ctx context.Context, telegramID int64) ([]*model.QuestInstance, error) {
	query, args, err := squirrel.
		Select("*").
		From("quest_instances").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("quest_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []questInstanceRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	instances := make([]*model.QuestInstance, len(rows))
	for i := range rows {
		instances[i] = rows[i].toModel()
	}
	return instances, nil
}

// RotateDailyQuests replaces the user's quest set with picks if the stored
// rotation date is not today. The prior day's instances are discarded
// wholesale, claimed or not; claim history lives in the transactions
// ledger, and a re-picked quest id must start fresh rather than collide
// with yesterday's row. The date comparison runs on the locked rotation
// row, so two sessions racing at midnight rotate once.
func (r *Repository) RotateDailyQuests(ctx context.Context, telegramID int64, picks []model.QuestDefinition, now time.Time) (bool, error) {
	rotated := false

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var lastRotated *time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT last_rotated FROM user_quest_rotations WHERE user_telegram_id = $1 FOR UPDATE`,
			telegramID,
		).Scan(&lastRotated)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if lastRotated != nil && model.SameDay(*lastRotated, now) {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM quest_instances WHERE user_telegram_id = $1`,
			telegramID)
		if err != nil {
			return fmt.Errorf("failed to discard prior quest instances: %w", err)
		}

		if len(picks) > 0 {
			builder := squirrel.
				Insert("quest_instances").
				Columns("user_telegram_id", "quest_id", "event", "progress", "target", "completed", "claimed", "rotated_at")

			for _, def := range picks {
				builder = builder.Values(telegramID, def.ID, def.Event, 0, def.Target, false, false, now)
			}

			query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build quest instances insert query: %w", err)
			}

			_, err = tx.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("failed to insert quest instances: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE user_quest_rotations SET last_rotated = $1 WHERE user_telegram_id = $2`,
			now, telegramID)
		if err != nil {
			return fmt.Errorf("failed to update quest rotation: %w", err)
		}

		rotated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return rotated, nil
}

// IncrementQuestProgress adds delta to every open instance counting event.
// Open instances are locked for the whole transaction, so concurrent
// increments serialize and the completion flip stays write-once.
func (r *Repository) IncrementQuestProgress(ctx context.Context, telegramID int64, event model.QuestEvent, delta int) error {
	if delta <= 0 {
		return nil
	}

	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var rows []questInstanceRow
		err := tx.SelectContext(ctx, &rows, `
            SELECT * FROM quest_instances
            WHERE user_telegram_id = $1 AND event = $2 AND NOT completed
            FOR UPDATE`,
			telegramID, event)
		if err != nil {
			return fmt.Errorf("failed to lock quest instances: %w", err)
		}

		for i := range rows {
			q := rows[i].toModel()
			q.Advance(delta)

			_, err := tx.ExecContext(ctx, `
                UPDATE quest_instances SET progress = $1, completed = $2
                WHERE user_telegram_id = $3 AND quest_id = $4`,
				q.Progress, q.Completed, telegramID, q.QuestID)
			if err != nil {
				return fmt.Errorf("failed to advance quest progress: %w", err)
			}
		}

		return nil
	})
}

// ClaimQuest pays the quest reward exactly once. The claimed flag flips in
// the same statement that checks it, so a concurrent duplicate claim
// matches zero rows and aborts without a second credit.
func (r *Repository) ClaimQuest(ctx context.Context, telegramID int64, questID string, reward float64, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `
            UPDATE quest_instances
            SET claimed = TRUE
            WHERE user_telegram_id = $1 AND quest_id = $2 AND completed AND NOT claimed`,
			telegramID, questID)
		if err != nil {
			return fmt.Errorf("failed to claim quest: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			var row questInstanceRow
			err := tx.GetContext(ctx, &row,
				`SELECT * FROM quest_instances WHERE user_telegram_id = $1 AND quest_id = $2`,
				telegramID, questID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNotFound
				}
				return err
			}
			if row.Claimed {
				return ErrAlreadyClaimed
			}
			return ErrQuestNotCompleted
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
			Kind:           model.TxQuest,
			Status:         model.TxCompleted,
			Details:        questID,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
}

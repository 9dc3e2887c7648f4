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

type transactionRow struct {
	ID             uuid.UUID  `db:"id"`
	UserTelegramID int64      `db:"user_telegram_id"`
	Amount         float64    `db:"amount"`
	Kind           string     `db:"kind"`
	Status         string     `db:"status"`
	Details        string     `db:"details"`
	PaymentMethod  *string    `db:"payment_method"`
	PaymentDetails *string    `db:"payment_details"`
	CreatedAt      time.Time  `db:"created_at"`
	ResolvedAt     *time.Time `db:"resolved_at"`
}

func (t *transactionRow) toModel() *model.TransactionRecord {
	return &model.TransactionRecord{
		ID:             t.ID,
		UserTelegramID: t.UserTelegramID,
		Amount:         t.Amount,
		Kind:           model.TransactionKind(t.Kind),
		Status:         model.TransactionStatus(t.Status),
		Details:        t.Details,
		PaymentMethod:  t.PaymentMethod,
		PaymentDetails: t.PaymentDetails,
		CreatedAt:      t.CreatedAt,
		ResolvedAt:     t.ResolvedAt,
	}
}

// SubmitRedemption escrows a payout request: the amount leaves the
// spendable balance immediately and the record sits in pending until an
// admin resolves it.
func (r *Repository) SubmitRedemption(ctx context.Context, telegramID int64, amount float64, method, details string, now time.Time) (*model.TransactionRecord, error) {
	rec := &model.TransactionRecord{
		ID:             uuid.New(),
		UserTelegramID: telegramID,
		Amount:         -amount,
		Kind:           model.TxRedeem,
		Status:         model.TxPending,
		Details:        "redemption request",
		PaymentMethod:  &method,
		PaymentDetails: &details,
		CreatedAt:      now,
	}

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		if user.Balance < amount {
			return ErrInsufficientFunds
		}

		err = updateUserTx(ctx, tx, telegramID, map[string]interface{}{
			"balance":      squirrel.Expr("balance - ?", amount),
			"last_seen_at": now,
		})
		if err != nil {
			return err
		}

		if err := insertTransactionTx(ctx, tx, rec); err != nil {
			return err
		}

		return notifyUserState(ctx, tx, telegramID)
	})
	if err != nil {
		return nil, err
	}

	return rec, nil
}

// ResolveRedemption transitions a pending redemption to its terminal
// status. Approval leaves the escrowed debit final; rejection refunds the
// amount. The pending-status precondition is checked on the locked record,
// so a concurrent second resolution aborts with ErrAlreadyResolved instead
// of double-applying.
func (r *Repository) ResolveRedemption(ctx context.Context, adminID int64, txID uuid.UUID, approve bool, note string, now time.Time) (*model.TransactionRecord, error) {
	var resolved *model.TransactionRecord

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		var row transactionRow
		query, args, err := squirrel.
			Select("*").
			From("transactions").
			Where(squirrel.Eq{"id": txID, "kind": model.TxRedeem}).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &row, query, args...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if model.TransactionStatus(row.Status) != model.TxPending {
			return ErrAlreadyResolved
		}

		status := model.TxCompleted
		action := "approve_redemption"
		if !approve {
			status = model.TxFailed
			action = "reject_redemption"

			// compensating refund of the escrowed amount
			refund := -row.Amount
			if _, err := getUserForUpdate(ctx, tx, row.UserTelegramID); err != nil {
				return err
			}
			err = updateUserTx(ctx, tx, row.UserTelegramID, map[string]interface{}{
				"balance": squirrel.Expr("balance + ?", refund),
			})
			if err != nil {
				return err
			}
		}

		updateQuery, updateArgs, err := squirrel.
			Update("transactions").
			SetMap(map[string]interface{}{
				"status":      status,
				"resolved_at": now,
			}).
			Where(squirrel.Eq{"id": txID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("failed to update redemption status: %w", err)
		}

		if err := insertAdminActionTx(ctx, tx, adminID, action, txID, note, now); err != nil {
			return err
		}

		if err := notifyUserState(ctx, tx, row.UserTelegramID); err != nil {
			return err
		}

		rec := row.toModel()
		rec.Status = status
		rec.ResolvedAt = &now
		resolved = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

func insertAdminActionTx(ctx context.Context, tx *sqlx.Tx, adminID int64, action string, txID uuid.UUID, details string, now time.Time) error {
	query, args, err := squirrel.
		Insert("admin_actions").
		SetMap(map[string]interface{}{
			"id":                uuid.New(),
			"admin_telegram_id": adminID,
			"action":            action,
			"transaction_id":    txID,
			"details":           details,
			"created_at":        now,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert admin action: %w", err)
	}

	return nil
}

// Transfer moves amount between two users in one transaction with a record
// on each side. Rows are locked in id order to avoid deadlocks between
// crossing transfers.
func (r *Repository) Transfer(ctx context.Context, fromID, toID int64, amount float64, now time.Time) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		firstID, secondID := fromID, toID
		if firstID > secondID {
			firstID, secondID = secondID, firstID
		}

		locked := make(map[int64]*model.UserState, 2)
		for _, id := range []int64{firstID, secondID} {
			user, err := getUserForUpdate(ctx, tx, id)
			if err != nil {
				if errors.Is(err, ErrNotFound) && id == toID {
					return ErrRecipientNotFound
				}
				return err
			}
			locked[id] = user
		}

		if locked[fromID].Balance < amount {
			return ErrInsufficientFunds
		}

		err := updateUserTx(ctx, tx, fromID, map[string]interface{}{
			"balance":      squirrel.Expr("balance - ?", amount),
			"last_seen_at": now,
		})
		if err != nil {
			return err
		}

		err = updateUserTx(ctx, tx, toID, map[string]interface{}{
			"balance": squirrel.Expr("balance + ?", amount),
		})
		if err != nil {
			return err
		}

		out := &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: fromID,
			Amount:         -amount,
			Kind:           model.TxTransferOut,
			Status:         model.TxCompleted,
			Details:        fmt.Sprintf("to %d", toID),
			CreatedAt:      now,
		}
		in := &model.TransactionRecord{
			ID:             uuid.New(),
			UserTelegramID: toID,
			Amount:         amount,
			Kind:           model.TxTransferIn,
			Status:         model.TxCompleted,
			Details:        fmt.Sprintf("from %d", fromID),
			CreatedAt:      now,
		}
		if err := insertTransactionTx(ctx, tx, out); err != nil {
			return err
		}
		if err := insertTransactionTx(ctx, tx, in); err != nil {
			return err
		}

		if err := notifyUserState(ctx, tx, fromID); err != nil {
			return err
		}
		return notifyUserState(ctx, tx, toID)
	})
}

func (r *Repository) ListTransactions(ctx context.Context, telegramID int64, limit int) ([]*model.TransactionRecord, error) {
	query, args, err := squirrel.
		Select("*").
		From("transactions").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	records := make([]*model.TransactionRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toModel()
	}
	return records, nil
}

func (r *Repository) ListPendingRedemptions(ctx context.Context) ([]*model.TransactionRecord, error) {
	query, args, err := squirrel.
		Select("*").
		From("transactions").
		Where(squirrel.Eq{"kind": model.TxRedeem, "status": model.TxPending}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}

	records := make([]*model.TransactionRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toModel()
	}
	return records, nil
}

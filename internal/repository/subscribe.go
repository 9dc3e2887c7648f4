package repository

import (
	"context"
	"strconv"

	"coindrop/internal/model"
	"coindrop/pkg/logger"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// SubscribeUserState returns a stream of full authoritative snapshots for
// one user, driven by the pg_notify calls every ledger commit makes. The
// channel closes when ctx is cancelled or the listening connection drops.
//
// Each notification triggers a fresh read of the whole row; subscribers
// always receive complete documents, never diffs, which is what lets the
// synchronizer overwrite its mirror without merging.
func (r *Repository) SubscribeUserState(ctx context.Context, telegramID int64) (<-chan *model.UserState, error) {
	conn, err := pgx.Connect(ctx, r.url)
	if err != nil {
		return nil, err
	}

	_, err = conn.Exec(ctx, "LISTEN user_state")
	if err != nil {
		conn.Close(ctx)
		return nil, err
	}

	updates := make(chan *model.UserState, 8)

	go func() {
		log := logger.Logger()
		defer close(updates)
		defer conn.Close(context.Background())

		for {
			notification, err := conn.WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("user state subscription dropped",
						zap.Int64("telegram_id", telegramID), zap.Error(err))
				}
				return
			}

			id, err := strconv.ParseInt(notification.Payload, 10, 64)
			if err != nil || id != telegramID {
				continue
			}

			state, err := r.GetUserState(ctx, telegramID)
			if err != nil {
				log.Warn("failed to read state after notification",
					zap.Int64("telegram_id", telegramID), zap.Error(err))
				continue
			}

			select {
			case updates <- state:
			default:
				// slow consumer: drop this snapshot, a newer one follows
			}
		}
	}()

	return updates, nil
}

package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"coindrop/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Repository{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestRotateDailyQuests_ReplacesClaimedInstances(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	picks := []model.QuestDefinition{
		{ID: "daily_tap_100", Event: model.QuestEventTap, Target: 100, Reward: 50},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT last_rotated FROM user_quest_rotations WHERE user_telegram_id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"last_rotated"}).AddRow(yesterday))

	// the delete must sweep claimed rows too, or a re-picked quest id from
	// an earlier day collides with the primary key and the rotation aborts
	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM quest_instances WHERE user_telegram_id = $1`) + `$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	mock.ExpectExec(`INSERT INTO quest_instances`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE user_quest_rotations SET last_rotated = $1 WHERE user_telegram_id = $2`)).
		WithArgs(now, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rotated, err := repo.RotateDailyQuests(context.Background(), 7, picks, now)

	assert.NoError(t, err)
	assert.True(t, rotated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateDailyQuests_SameDaySkips(t *testing.T) {
	repo, mock := newMockRepository(t)

	now := time.Date(2025, 6, 2, 21, 0, 0, 0, time.UTC)
	thisMorning := time.Date(2025, 6, 2, 0, 5, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT last_rotated FROM user_quest_rotations WHERE user_telegram_id = $1 FOR UPDATE`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"last_rotated"}).AddRow(thisMorning))
	mock.ExpectCommit()

	rotated, err := repo.RotateDailyQuests(context.Background(), 7, nil, now)

	assert.NoError(t, err)
	assert.False(t, rotated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIncrementQuestProgress_CompletesAtTarget(t *testing.T) {
	repo, mock := newMockRepository(t)

	columns := []string{
		"user_telegram_id", "quest_id", "event", "progress",
		"target", "completed", "claimed", "rotated_at",
	}
	rotatedAt := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM quest_instances`).
		WithArgs(int64(7), "tap").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(7), "daily_tap_100", "tap", 99, 100, false, false, rotatedAt))
	mock.ExpectExec(`UPDATE quest_instances SET progress`).
		WithArgs(100, true, int64(7), "daily_tap_100").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementQuestProgress(context.Background(), 7, model.QuestEventTap, 5)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"context"
	"fmt"

	"coindrop/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOutOfEnergy       = errors.New("out of energy")
	ErrMaxLevelReached   = errors.New("max level reached")
	ErrAlreadyUnlocked   = errors.New("already unlocked")
	ErrAlreadyClaimed    = errors.New("already claimed")
	ErrAlreadyResolved   = errors.New("already resolved")
	ErrQuestNotCompleted = errors.New("quest not completed")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrNothingToClaim    = errors.New("nothing to claim")
	ErrBuffAlreadyActive = errors.New("buff already active")
)

type Repository struct {
	db  *sqlx.DB
	url string
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Transaction runs t inside a database transaction; any error rolls the
// whole thing back. Every ledger operation goes through here so that its
// precondition checks and writes commit or abort as one unit.
func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func New(cfg Config) (*Repository, error) {
	url := cfg.GetDatabaseURL()
	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully")

	return &Repository{
		db:  db,
		url: url,
	}, nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

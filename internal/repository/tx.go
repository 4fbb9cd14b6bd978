package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Stores holds the repositories bound to one transaction.
type Stores struct {
	Accounts    AccountStore
	ResetTokens ResetTokenStore
}

// TxRunner runs a unit of work atomically. If fn returns an error nothing it
// wrote is kept.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}

// SQLTxRunner runs units of work in a database transaction.
type SQLTxRunner struct {
	db *sqlx.DB
}

// NewTxRunner creates a transaction runner on db.
func NewTxRunner(db *sqlx.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// WithTx begins a transaction, hands fn repositories bound to it, and commits
// only when fn succeeds.
func (t *SQLTxRunner) WithTx(ctx context.Context, fn func(ctx context.Context, stores Stores) error) (err error) {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("db error: %w", cerr)
		}
	}()

	err = fn(ctx, Stores{
		Accounts:    NewAccountRepository(tx),
		ResetTokens: NewResetTokenRepository(tx),
	})
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/ender-auth/internal/models"
	"github.com/jmoiron/sqlx"
)

// ResetTokenStore persists password reset records.
type ResetTokenStore interface {
	Insert(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error)
	// Consume deletes the record with the given hash and returns it.
	Consume(ctx context.Context, tokenHash string) (*models.ResetToken, error)
	DeleteByAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenRepository handles database operations for reset tokens.
type ResetTokenRepository struct {
	db sqlx.ExtContext
}

// NewResetTokenRepository creates a new reset token repository on a pool or a transaction.
func NewResetTokenRepository(db sqlx.ExtContext) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Insert(ctx context.Context, token *models.ResetToken) (*models.ResetToken, error) {
	query := r.db.Rebind(`INSERT INTO reset_tokens (id, account_id, token_hash, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.AccountID, token.TokenHash, token.CreatedAt.UTC(), token.ExpiresAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

// Consume removes and returns a token in one statement so two concurrent
// resets cannot both redeem it.
func (r *ResetTokenRepository) Consume(ctx context.Context, tokenHash string) (*models.ResetToken, error) {
	query := r.db.Rebind(`DELETE FROM reset_tokens WHERE token_hash = ?
		RETURNING id, account_id, token_hash, created_at, expires_at`)

	var token models.ResetToken
	if err := sqlx.GetContext(ctx, r.db, &token, query, tokenHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &token, nil
}

func (r *ResetTokenRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM reset_tokens WHERE account_id = ?"), accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired purges tokens that expired before now and returns how many were removed.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM reset_tokens WHERE expires_at < ?"), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

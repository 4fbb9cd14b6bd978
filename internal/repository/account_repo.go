// Package repository persists accounts, reset tokens and account events.
// Queries are written with '?' placeholders and rebound for the active driver.
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

// AccountStore persists account records.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	// Insert fails with ErrEmailTaken when the email is already registered.
	Insert(ctx context.Context, account *models.Account) (*models.Account, error)
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
}

const accountColumns = "id, name, email, password_hash, photo, phone, bio, created_at, updated_at"

// AccountRepository handles database operations for accounts.
type AccountRepository struct {
	db  sqlx.ExtContext
	now func() time.Time
}

// NewAccountRepository creates a new account repository on a pool or a transaction.
func NewAccountRepository(db sqlx.ExtContext) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

// FindByEmail retrieves an account by its exact email.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email = ?", email)
}

// FindByID retrieves an account by ID.
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var account models.Account
	err := sqlx.GetContext(ctx, r.db, &account, r.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &account, nil
}

// Insert stores a new account. The UNIQUE constraint on email makes the
// existence check and the insert a single atomic step.
func (r *AccountRepository) Insert(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	query := r.db.Rebind(`INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.PasswordHash,
		account.Photo, account.Phone, account.Bio, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// Save writes every mutable field of an existing account.
func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.UpdatedAt = r.now().UTC()

	query := r.db.Rebind(`UPDATE accounts
		SET name = ?, password_hash = ?, photo = ?, phone = ?, bio = ?, updated_at = ?
		WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		account.Name, account.PasswordHash, account.Photo, account.Phone, account.Bio,
		account.UpdatedAt, account.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return account, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/isdelr/ender-auth/internal/models"
	"github.com/jmoiron/sqlx"
)

// EventStore persists account activity.
type EventStore interface {
	Insert(ctx context.Context, event *models.Event) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]models.Event, error)
}

// EventRepository handles database operations for account events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(ctx context.Context, event *models.Event) error {
	query := r.db.Rebind("INSERT INTO account_events (id, account_id, type, message, created_at) VALUES (?, ?, ?, ?, ?)")
	_, err := r.db.ExecContext(ctx, query, event.ID, event.AccountID, event.Type, event.Message, event.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByAccount returns the most recent events for an account, newest first.
func (r *EventRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]models.Event, error) {
	query := r.db.Rebind(`SELECT id, account_id, type, message, created_at FROM account_events
		WHERE account_id = ? ORDER BY created_at DESC LIMIT ?`)

	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, accountID, limit); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return events, nil
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-auth/internal/models"
	"github.com/isdelr/ender-auth/internal/repository"
)

// EventServiceProvider defines the interface for account activity.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, accountID, eventType, message string) error
	GetRecentEvents(ctx context.Context, accountID string, limit int) ([]models.Event, error)
}

// EventService records account activity.
type EventService struct {
	store repository.EventStore
	now   func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(store repository.EventStore) *EventService {
	return &EventService{store: store, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, accountID, eventType, message string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		AccountID: accountID,
		Type:      eventType,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	return s.store.Insert(ctx, &event)
}

// GetRecentEvents retrieves an account's most recent events.
func (s *EventService) GetRecentEvents(ctx context.Context, accountID string, limit int) ([]models.Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	events, err := s.store.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, unavailable("Failed to retrieve activity", err)
	}
	return events, nil
}

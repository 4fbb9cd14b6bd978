package models

import "time"

// Account activity event types.
const (
	EventRegistered     = "account.registered"
	EventLogin          = "account.login"
	EventProfileUpdated = "account.profile.updated"
	EventPasswordChange = "account.password.changed"
	EventResetRequested = "account.password.reset_requested"
	EventPasswordReset  = "account.password.reset"
)

// Event represents a recorded account activity.
type Event struct {
	ID        string    `json:"id" db:"id"`
	AccountID string    `json:"accountId" db:"account_id"`
	Type      string    `json:"type" db:"type"` // e.g., "account.login"
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

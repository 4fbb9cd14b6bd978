package models

import "time"

// ResetToken is a pending password reset. Only the hash of the emailed
// secret is stored.
type ResetToken struct {
	ID        string    `db:"id"`
	AccountID string    `db:"account_id"`
	TokenHash string    `db:"token_hash"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// IsExpiredAt reports whether the token is no longer usable at t.
func (r *ResetToken) IsExpiredAt(t time.Time) bool {
	return t.After(r.ExpiresAt)
}

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-auth/internal/models"
)

// ResetSecretBytes is the amount of randomness in a reset secret.
const ResetSecretBytes = 32

// ResetTokens creates and checks password reset credentials.
type ResetTokens struct {
	ttl time.Duration
	now func() time.Time
}

// NewResetTokens creates a generator whose tokens expire after ttl.
func NewResetTokens(ttl time.Duration) *ResetTokens {
	return &ResetTokens{ttl: ttl, now: time.Now}
}

// TTL returns the reset token lifetime.
func (g *ResetTokens) TTL() time.Duration {
	return g.ttl
}

// Generate returns the raw secret to deliver to the user and the record to
// persist. The raw secret is random hex followed by the account ID; only its
// SHA-256 digest is kept in the record.
func (g *ResetTokens) Generate(accountID string) (string, models.ResetToken, error) {
	buf := make([]byte, ResetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", models.ResetToken{}, fmt.Errorf("generate reset secret: %w", err)
	}

	raw := hex.EncodeToString(buf) + accountID
	now := g.now().UTC()
	record := models.ResetToken{
		ID:        uuid.New().String(),
		AccountID: accountID,
		TokenHash: HashSecret(raw),
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	return raw, record, nil
}

// Validate reports whether raw matches record and the record is unexpired.
func (g *ResetTokens) Validate(raw string, record models.ResetToken) bool {
	if raw == "" || record.TokenHash == "" {
		return false
	}
	if record.IsExpiredAt(g.now()) {
		return false
	}
	computed := HashSecret(raw)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(record.TokenHash)) == 1
}

// HashSecret returns the hex SHA-256 digest under which a reset secret is stored.
func HashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

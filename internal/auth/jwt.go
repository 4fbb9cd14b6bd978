package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// ErrInvalidToken is returned for any session token that fails verification.
var ErrInvalidToken = errors.New("invalid session token")

// Claims defines the JWT claims structure.
type Claims struct {
	AccountID string `json:"id"`
	jwt.RegisteredClaims
}

type contextKey string

// AccountIDKey is the context key for the authenticated account ID.
const AccountIDKey = contextKey("accountID")

// TokenIssuer signs and verifies session tokens with a server-held key.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue creates a signed token for accountID and returns it with its expiry.
func (t *TokenIssuer) Issue(accountID string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)
	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry and returns the account ID. Any failure
// is reported as ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.AccountID == "" {
		return "", ErrInvalidToken
	}
	return claims.AccountID, nil
}

// Expired returns the value used to clear a session: an empty token whose
// expiry has already passed.
func (t *TokenIssuer) Expired() (string, time.Time) {
	return "", time.Unix(0, 0)
}

// TokenFromRequest reads the session token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if tok, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AccountIDFromContext returns the account ID stored by RequireSession.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AccountIDKey).(string)
	return id, ok && id != ""
}

// RequireSession creates a middleware for protecting routes.
func RequireSession(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := TokenFromRequest(r)
			if tokenStr == "" {
				writeUnauthorized(w, "Not authorized, please login")
				return
			}

			accountID, err := issuer.Verify(tokenStr)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected session token")
				writeUnauthorized(w, "Not authorized, please login")
				return
			}

			ctx := context.WithValue(r.Context(), AccountIDKey, accountID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"message\":%q}\n", msg)
}

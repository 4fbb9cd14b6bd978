package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/isdelr/ender-auth/internal/email"
	"github.com/isdelr/ender-auth/internal/models"
	"github.com/isdelr/ender-auth/internal/repository"
)

var errBoom = errors.New("boom")

type memAccounts struct {
	mu        sync.Mutex
	byID      map[string]models.Account
	insertErr error
	saveErr   error
	findErr   error
	saves     int
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]models.Account{}}
}

func (m *memAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, a := range m.byID {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memAccounts) FindByID(_ context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (m *memAccounts) Insert(_ context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	for _, existing := range m.byID {
		if existing.Email == a.Email {
			return nil, repository.ErrEmailTaken
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.byID[a.ID] = *a
	return a, nil
}

func (m *memAccounts) Save(_ context.Context, a *models.Account) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if _, ok := m.byID[a.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	m.saves++
	a.UpdatedAt = time.Now()
	m.byID[a.ID] = *a
	return a, nil
}

func (m *memAccounts) get(id string) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memResetTokens struct {
	mu        sync.Mutex
	byHash    map[string]models.ResetToken
	insertErr error
	inserts   int
}

func newMemResetTokens() *memResetTokens {
	return &memResetTokens{byHash: map[string]models.ResetToken{}}
}

func (m *memResetTokens) Insert(_ context.Context, t *models.ResetToken) (*models.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.inserts++
	m.byHash[t.TokenHash] = *t
	return t, nil
}

func (m *memResetTokens) Consume(_ context.Context, hash string) (*models.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byHash[hash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(m.byHash, hash)
	return &t, nil
}

func (m *memResetTokens) DeleteByAccount(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, t := range m.byHash {
		if t.AccountID == accountID {
			delete(m.byHash, h)
		}
	}
	return nil
}

func (m *memResetTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if t.IsExpiredAt(now) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memResetTokens) all() []models.ResetToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ResetToken, 0, len(m.byHash))
	for _, t := range m.byHash {
		out = append(out, t)
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type memEvents struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (m *memEvents) Insert(_ context.Context, e *models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *e)
	return nil
}

func (m *memEvents) ListByAccount(_ context.Context, accountID string, limit int) ([]models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Event
	for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
		if m.events[i].AccountID == accountID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

func (m *memEvents) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// memTx runs units of work against the in-memory stores and restores both on
// failure, like a rolled back transaction.
type memTx struct {
	accounts *memAccounts
	tokens   *memResetTokens
	beginErr error
}

func (m *memTx) WithTx(ctx context.Context, fn func(ctx context.Context, stores repository.Stores) error) error {
	if m.beginErr != nil {
		return m.beginErr
	}
	accounts := m.accounts.snapshot()
	tokens := m.tokens.snapshot()

	if err := fn(ctx, repository.Stores{Accounts: m.accounts, ResetTokens: m.tokens}); err != nil {
		m.accounts.restore(accounts)
		m.tokens.restore(tokens)
		return err
	}
	return nil
}

func (m *memAccounts) snapshot() map[string]models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.Account, len(m.byID))
	for k, v := range m.byID {
		out[k] = v
	}
	return out
}

func (m *memAccounts) restore(byID map[string]models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = byID
}

func (m *memResetTokens) snapshot() map[string]models.ResetToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]models.ResetToken, len(m.byHash))
	for k, v := range m.byHash {
		out[k] = v
	}
	return out
}

func (m *memResetTokens) restore(byHash map[string]models.ResetToken) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash = byHash
}

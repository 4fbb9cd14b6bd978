package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/ender-auth/internal/auth"
	"github.com/isdelr/ender-auth/internal/email"
	"github.com/isdelr/ender-auth/internal/models"
	"github.com/isdelr/ender-auth/internal/repository"
	"github.com/rs/zerolog/log"
)

// ResetEmailSubject is the subject line of password reset emails.
const ResetEmailSubject = "Password Reset Request"

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(ctx context.Context, name, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout() *Session
	LoginStatus(token string) bool
	GetProfile(ctx context.Context, accountID string) (models.PublicAccount, error)
	UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (models.PublicAccount, error)
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetSecret, newPassword string) error
}

// Session is the result of a successful registration or login. A logout
// session carries an empty token with an expiry in the past.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   models.PublicAccount
}

// ProfileUpdate holds the optional fields of a profile update. Nil or empty
// values keep the stored value. Email is accepted but never applied.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Photo *string `json:"photo"`
	Phone *string `json:"phone"`
	Bio   *string `json:"bio"`
}

// AccountDeps are the collaborators of an AccountService.
type AccountDeps struct {
	Accounts    repository.AccountStore
	ResetTokens repository.ResetTokenStore
	Hasher      auth.PasswordHasher
	Sessions    *auth.TokenIssuer
	Resets      *auth.ResetTokens
	Mailer      email.Sender
	Events      EventServiceProvider // optional
	Tx          repository.TxRunner

	ClientURL string // base of reset links, without trailing slash
	MailFrom  string
}

// AccountService provides business logic for account management.
type AccountService struct {
	accounts    repository.AccountStore
	resetTokens repository.ResetTokenStore
	hasher      auth.PasswordHasher
	sessions    *auth.TokenIssuer
	resets      *auth.ResetTokens
	mailer      email.Sender
	events      EventServiceProvider
	tx          repository.TxRunner
	clientURL   string
	mailFrom    string
}

// NewAccountService creates a new AccountService.
func NewAccountService(deps AccountDeps) (*AccountService, error) {
	switch {
	case deps.Accounts == nil:
		return nil, errors.New("account store is required")
	case deps.ResetTokens == nil:
		return nil, errors.New("reset token store is required")
	case deps.Hasher == nil:
		return nil, errors.New("password hasher is required")
	case deps.Sessions == nil:
		return nil, errors.New("session token issuer is required")
	case deps.Resets == nil:
		return nil, errors.New("reset token generator is required")
	case deps.Mailer == nil:
		return nil, errors.New("email sender is required")
	case deps.Tx == nil:
		return nil, errors.New("transaction runner is required")
	}

	return &AccountService{
		accounts:    deps.Accounts,
		resetTokens: deps.ResetTokens,
		hasher:      deps.Hasher,
		sessions:    deps.Sessions,
		resets:      deps.Resets,
		mailer:      deps.Mailer,
		events:      deps.Events,
		tx:          deps.Tx,
		clientURL:   strings.TrimRight(deps.ClientURL, "/"),
		mailFrom:    deps.MailFrom,
	}, nil
}

// Register creates a new account and starts a session for it.
func (s *AccountService) Register(ctx context.Context, name, emailAddr, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	emailAddr = strings.TrimSpace(emailAddr)

	if name == "" || emailAddr == "" || password == "" {
		return nil, invalid("Please fill in all required fields")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateEmail(emailAddr); err != nil {
		return nil, err
	}

	// Fail fast before paying for bcrypt; Insert still enforces uniqueness.
	if _, err := s.accounts.FindByEmail(ctx, emailAddr); err == nil {
		return nil, &Error{Kind: KindConflict, Message: "Email has already been registered"}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, unavailable("Failed to check existing account", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, unavailable("Failed to hash password", err)
	}

	account := &models.Account{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        emailAddr,
		PasswordHash: hash,
		Photo:        models.DefaultPhoto,
		Phone:        models.DefaultPhone,
		Bio:          models.DefaultBio,
	}
	saved, err := s.accounts.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, &Error{Kind: KindConflict, Message: "Email has already been registered", Err: err}
		}
		return nil, unavailable("Failed to create account", err)
	}

	token, expiresAt, err := s.sessions.Issue(saved.ID)
	if err != nil {
		return nil, unavailable("Failed to issue session", err)
	}

	s.record(ctx, saved.ID, models.EventRegistered, "Account registered")
	return &Session{Token: token, ExpiresAt: expiresAt, Account: saved.Public()}, nil
}

// Login verifies credentials and starts a session.
func (s *AccountService) Login(ctx context.Context, emailAddr, password string) (*Session, error) {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" || password == "" {
		return nil, invalid("Please add email and password")
	}

	account, err := s.accounts.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found, please signup")
		}
		return nil, unavailable("Failed to look up account", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return nil, unauthorized("Invalid email or password")
	}

	token, expiresAt, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, unavailable("Failed to issue session", err)
	}

	s.record(ctx, account.ID, models.EventLogin, "Logged in")
	return &Session{Token: token, ExpiresAt: expiresAt, Account: account.Summary()}, nil
}

// Logout returns the already-expired session that replaces the client's token.
func (s *AccountService) Logout() *Session {
	token, expiresAt := s.sessions.Expired()
	return &Session{Token: token, ExpiresAt: expiresAt}
}

// LoginStatus reports whether token is a currently valid session.
func (s *AccountService) LoginStatus(token string) bool {
	_, err := s.sessions.Verify(token)
	return err == nil
}

// GetProfile returns the public view of an account.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (models.PublicAccount, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return models.PublicAccount{}, err
	}
	return account.Public(), nil
}

// UpdateProfile applies the provided name, photo, phone and bio.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (models.PublicAccount, error) {
	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return models.PublicAccount{}, err
	}

	if v, ok := provided(update.Bio); ok {
		if err := validateBio(v); err != nil {
			return models.PublicAccount{}, err
		}
		account.Bio = v
	}
	if v, ok := provided(update.Name); ok {
		account.Name = strings.TrimSpace(v)
	}
	if v, ok := provided(update.Photo); ok {
		account.Photo = v
	}
	if v, ok := provided(update.Phone); ok {
		account.Phone = v
	}

	saved, err := s.accounts.Save(ctx, account)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.PublicAccount{}, notFound("User not found")
		}
		return models.PublicAccount{}, unavailable("Failed to update account", err)
	}

	s.record(ctx, saved.ID, models.EventProfileUpdated, "Profile updated")
	return saved.Public(), nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return invalid("Please add old and new password")
	}

	account, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(oldPassword, account.PasswordHash) {
		return unauthorized("Old password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return err
	}

	s.record(ctx, account.ID, models.EventPasswordChange, "Password changed")
	return nil
}

// ForgotPassword creates a reset token for the account and emails the reset link.
func (s *AccountService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return invalid("Please enter an email")
	}

	account, err := s.accounts.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("User does not exist")
		}
		return unavailable("Failed to look up account", err)
	}

	// Only the newest link stays usable.
	if err := s.resetTokens.DeleteByAccount(ctx, account.ID); err != nil {
		return unavailable("Failed to clear previous reset tokens", err)
	}

	raw, record, err := s.resets.Generate(account.ID)
	if err != nil {
		return unavailable("Failed to generate reset token", err)
	}
	if _, err := s.resetTokens.Insert(ctx, &record); err != nil {
		return unavailable("Failed to store reset token", err)
	}

	link := s.clientURL + "/resetpassword/" + raw
	body, err := email.ResetPasswordBody(account.Name, link, s.resets.TTL())
	if err != nil {
		return unavailable("Failed to compose reset email", err)
	}

	err = s.mailer.Send(ctx, email.Message{
		Subject:  ResetEmailSubject,
		HTMLBody: body,
		To:       account.Email,
		From:     s.mailFrom,
	})
	if err != nil {
		return &Error{Kind: KindDeliveryFailed, Message: "Email not sent, please try again", Err: err}
	}

	s.record(ctx, account.ID, models.EventResetRequested, "Password reset requested")
	return nil
}

// ResetPassword redeems a reset secret and sets a new password. Consuming the
// token and saving the password happen in one transaction, so a failed save
// leaves the link usable and a successful one can never be repeated.
func (s *AccountService) ResetPassword(ctx context.Context, resetSecret, newPassword string) error {
	if resetSecret == "" {
		return notFound("Invalid or expired token")
	}
	if newPassword == "" {
		return invalid("Please add a new password")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return unavailable("Failed to hash password", err)
	}

	var accountID string
	err = s.tx.WithTx(ctx, func(ctx context.Context, stores repository.Stores) error {
		record, err := stores.ResetTokens.Consume(ctx, auth.HashSecret(resetSecret))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("Invalid or expired token")
			}
			return unavailable("Failed to redeem reset token", err)
		}
		if !s.resets.Validate(resetSecret, *record) {
			return notFound("Invalid or expired token")
		}

		account, err := stores.Accounts.FindByID(ctx, record.AccountID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return notFound("User not found")
			}
			return unavailable("Failed to look up account", err)
		}
		if err := saveHash(ctx, stores.Accounts, account, hash); err != nil {
			return err
		}

		if err := stores.ResetTokens.DeleteByAccount(ctx, account.ID); err != nil {
			return unavailable("Failed to clear reset tokens", err)
		}
		accountID = account.ID
		return nil
	})
	if err != nil {
		var se *Error
		if !errors.As(err, &se) {
			return unavailable("Failed to reset password", err)
		}
		return err
	}

	s.record(ctx, accountID, models.EventPasswordReset, "Password reset")
	return nil
}

func (s *AccountService) findAccount(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("User not found")
		}
		return nil, unavailable("Failed to look up account", err)
	}
	return account, nil
}

// setPassword hashes password and stores it on account.
func (s *AccountService) setPassword(ctx context.Context, account *models.Account, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return unavailable("Failed to hash password", err)
	}
	return saveHash(ctx, s.accounts, account, hash)
}

// saveHash is the only place a stored password hash changes after registration.
func saveHash(ctx context.Context, accounts repository.AccountStore, account *models.Account, hash string) error {
	account.PasswordHash = hash
	if _, err := accounts.Save(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("User not found")
		}
		return unavailable("Failed to update password", err)
	}
	return nil
}

// record stores an activity event. Failures are logged and never fail the
// operation that triggered them.
func (s *AccountService) record(ctx context.Context, accountID, eventType, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, accountID, eventType, message); err != nil {
		log.Warn().Err(err).Str("account_id", accountID).Str("event", eventType).Msg("Failed to record account event")
	}
}

func provided(v *string) (string, bool) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "", false
	}
	return *v, true
}

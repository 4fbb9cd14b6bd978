package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/ender-auth/internal/auth"
	"github.com/isdelr/ender-auth/internal/services"
	"github.com/rs/zerolog/log"
)

// AccountHandler handles HTTP requests for account management.
type AccountHandler struct {
	service       services.AccountServiceProvider
	secureCookies bool
}

// NewAccountHandler creates a new AccountHandler. secureCookies marks the
// session cookie Secure and should be set in production.
func NewAccountHandler(service services.AccountServiceProvider, secureCookies bool) *AccountHandler {
	return &AccountHandler{service: service, secureCookies: secureCookies}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthPayload defines the structure for login requests.
type AuthPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles new account registration.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decode(w, r, &payload) {
		return
	}

	session, err := h.service.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, "register", err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	log.Info().Str("account_id", session.Account.ID).Msg("Account registered")
	writeJSON(w, http.StatusCreated, session.Account)
}

// Login handles credential verification and session issuance.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload AuthPayload
	if !decode(w, r, &payload) {
		return
	}

	session, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeJSON(w, http.StatusOK, session.Account)
}

// Logout clears the session cookie.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.service.Logout()
	h.setSessionCookie(w, session.Token, session.ExpiresAt)
	writeMessage(w, http.StatusOK, "Successfully Logged Out")
}

// LoginStatus reports whether the request carries a valid session.
func (h *AccountHandler) LoginStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.LoginStatus(auth.TokenFromRequest(r)))
}

// GetMe retrieves the currently authenticated account.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, please login")
		return
	}

	account, err := h.service.GetProfile(r.Context(), accountID)
	if err != nil {
		writeError(w, r, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Update handles updating the authenticated account's profile.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, please login")
		return
	}

	var payload services.ProfileUpdate
	if !decode(w, r, &payload) {
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), accountID, payload)
	if err != nil {
		writeError(w, r, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ChangePassword handles changing the authenticated account's password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	accountID, ok := auth.AccountIDFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Not authorized, please login")
		return
	}

	var payload struct {
		OldPassword string `json:"oldPassword"`
		Password    string `json:"password"`
	}
	if !decode(w, r, &payload) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), accountID, payload.OldPassword, payload.Password); err != nil {
		writeError(w, r, "change password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password change successful")
}

// ForgotPassword starts the emailed reset flow.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &payload) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), payload.Email); err != nil {
		writeError(w, r, "forgot password", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Reset Email Sent"})
}

// ResetPassword redeems the reset token in the URL.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	resetToken := chi.URLParam(r, "resetToken")

	var payload struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &payload) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), resetToken, payload.Password); err != nil {
		writeError(w, r, "reset password", err)
		return
	}
	writeMessage(w, http.StatusOK, "Password Reset Successful, Please Login")
}

func (h *AccountHandler) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if token == "" {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}

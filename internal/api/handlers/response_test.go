package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/isdelr/ender-auth/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_StatusByKind(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &services.Error{Kind: services.KindValidationFailed, Message: "Please add email and password"}, http.StatusBadRequest, "Please add email and password"},
		{"conflict", &services.Error{Kind: services.KindConflict, Message: "Email has already been registered"}, http.StatusBadRequest, "Email has already been registered"},
		{"not found", &services.Error{Kind: services.KindNotFound, Message: "User not found"}, http.StatusNotFound, "User not found"},
		{"unauthorized", &services.Error{Kind: services.KindUnauthorized, Message: "Invalid email or password"}, http.StatusUnauthorized, "Invalid email or password"},
		{"delivery", &services.Error{Kind: services.KindDeliveryFailed, Message: "Email not sent, please try again"}, http.StatusInternalServerError, "Email not sent, please try again"},
		{"unavailable", &services.Error{Kind: services.KindUnavailable, Message: "Failed to look up account", Err: errors.New("db down")}, http.StatusInternalServerError, "Failed to look up account"},
		{"untyped", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			writeError(rr, req, "test", tt.err)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestDecode_RejectsOversizedBody(t *testing.T) {
	big := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(big))
	rr := httptest.NewRecorder()

	var payload RegisterPayload
	assert.False(t, decode(rr, req, &payload))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Empty(t, payload.Name)
}

func TestDecode_AcceptsBodyWithinLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"ann@x.com","password":"secret1"}`))
	rr := httptest.NewRecorder()

	var payload AuthPayload
	require.True(t, decode(rr, req, &payload))
	assert.Equal(t, "ann@x.com", payload.Email)
	assert.Equal(t, http.StatusOK, rr.Code)
}

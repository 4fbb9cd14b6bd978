package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/ender-auth/internal/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// statusFor maps a service failure kind to an HTTP status code.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidationFailed, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError renders a service error and logs it at a level matching its severity.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)

	var ev *zerolog.Event
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	} else {
		ev = log.Warn()
	}
	ev.Err(err).Str("op", op).Str("kind", kind.String()).Str("path", r.URL.Path).Msg("Request failed")

	writeMessage(w, status, services.MessageOf(err))
}

// maxBodyBytes caps the size of a JSON request body.
const maxBodyBytes = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Package handlers provides JSON response helpers shared by domain HTTP handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RespondJSON writes data as a JSON body with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError writes {"error": err} with the given status code.
// Server errors are logged; client errors are not.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Error("handler error", "status", status, "error", err)
	}
	RespondJSON(w, status, map[string]string{"error": err.Error()})
}

// DecodeJSON decodes a request body into T, limiting the body to maxBytes
// when maxBytes is positive.
func DecodeJSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, error) {
	var v T
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	err := json.NewDecoder(body).Decode(&v)
	return v, err
}

// UserIDHeader carries the requesting user's id, set by the upstream gateway.
const UserIDHeader = "X-User-ID"

// ErrInvalidUserID is returned when the user id header is not a UUID.
var ErrInvalidUserID = errors.New("invalid " + UserIDHeader + " header")

// UserID returns the requesting user's id, or nil when the header is absent.
func UserID(r *http.Request) (*uuid.UUID, error) {
	v := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	return &id, nil
}

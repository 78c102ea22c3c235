package demand

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/courselens/pkg/handlers"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidID      = errors.New("invalid notification id")
	ErrInvalidKeyword = errors.New("keyword is required")
	ErrUnknownUser    = errors.New("unknown user")
	ErrUserRequired   = errors.New(handlers.UserIDHeader + " header is required")
)

// MapHTTPStatus maps demand domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidKeyword), errors.Is(err, ErrUserRequired):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownUser):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

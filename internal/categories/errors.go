package categories

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrDuplicate = errors.New("category name already exists")
	ErrInvalid   = errors.New("invalid category")
)

// MapHTTPStatus maps category domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package courses

import (
	"errors"
	"net/http"
)

// Domain errors for course operations.
var (
	ErrNotFound      = errors.New("course not found")
	ErrDuplicate     = errors.New("course already exists")
	ErrInvalidImport = errors.New("invalid import")
)

// MapHTTPStatus maps course domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidImport) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

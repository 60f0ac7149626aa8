package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates domain sentinel errors into HTTP status
// codes at the API edge. Unknown errors map to 500.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrInvalidUsername), errors.Is(err, ErrInvalidDisplayName):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMissingChannel):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

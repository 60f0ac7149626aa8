package errors

import "fmt"

var (
	// Connection-time authentication failures. The reason strings are part
	// of the protocol surface and must stay distinguishable.
	ErrNoToken      = fmt.Errorf("no token")
	ErrInvalidToken = fmt.Errorf("invalid token")

	// Send rejections, reported to the caller only.
	ErrEmptyMessage   = fmt.Errorf("message text is empty")
	ErrMissingChannel = fmt.Errorf("channel id is missing")
	ErrSessionClosed  = fmt.Errorf("session is not active")
	ErrServerBusy     = fmt.Errorf("message pipeline is saturated")

	// Account operations.
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid username/password")
	ErrInvalidUsername    = fmt.Errorf("username must be 3-32 alphanumeric characters")
	ErrInvalidDisplayName = fmt.Errorf("display name is too long")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	ErrNotFound    = fmt.Errorf("not found")
	ErrWorkerPanic = fmt.Errorf("worker panic")
)

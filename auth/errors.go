package auth

import "errors"

var (
	// ErrDuplicateEmail indicates the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateUsername indicates the username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrInvalidCredentials covers both unknown email and wrong password;
	// the two cases must not be distinguishable from the outside.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrSessionExpired indicates the token was known but past its expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound indicates a malformed, unknown or revoked token.
	ErrSessionNotFound = errors.New("session not found")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation error")
)

// StorageError wraps persistence failures. Detail stays server-side; handlers
// map it to a generic 5xx.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string {
	return "storage: " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(err error) error {
	return &StorageError{Err: err}
}

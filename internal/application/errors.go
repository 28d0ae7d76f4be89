package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUserNotFound: no account with that email.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailNotVerified: account exists but has not confirmed its
	// email; checked before the password.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrInvalidCredentials: password hash mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound covers both nonexistent records and records owned by
	// someone else; callers are not told which.
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken: confirmation link is missing, mismatched, or
	// already consumed. Deliberately generic.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ValidationError carries per-field messages surfaced to the user
// inline, as opposed to sentinel errors which map to status codes.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		msgs = append(msgs, f+": "+m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

// AsValidation unwraps err into a *ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

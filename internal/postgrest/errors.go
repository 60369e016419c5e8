package postgrest

import (
	"errors"
	"fmt"
)

// AuthError indicates the store rejected the API key (401 or 403).
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// StatusError is any other non-2xx response. Body holds the raw response
// text; its shape is not part of the store contract.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Status, e.Method, e.Path, e.Body)
}

// ConflictError is returned on 409, typically a unique constraint.
type ConflictError struct {
	StatusError
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsConflict reports whether err (or any error in its chain) is a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// StatusCode extracts the HTTP status from a transport error, or 0 when
// the request never got a response.
func StatusCode(err error) int {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Status
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Status
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status
	}
	return 0
}

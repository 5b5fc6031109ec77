package api

import (
	"errors"
	"fmt"
)

// ErrAuthExpired is returned for any HTTP 401 response. Callers must treat
// it as a forced logout and drop the local session.
var ErrAuthExpired = errors.New("session expired or invalid")

// ConnectionError wraps a transport-level failure (DNS, refused connection,
// timeout). The backend was never reached, or never answered.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Error is a non-2xx backend response other than 401. Message carries the
// backend-provided error text when the body could be parsed.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.Status)
}

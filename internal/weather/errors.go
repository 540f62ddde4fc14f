package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a queried record does not exist.
	ErrNotFound = errors.New("weather record not found")

	// ErrDuplicate is returned when a record with the same location and timestamp is
	// already stored.
	ErrDuplicate = errors.New("weather record already exists")
)

// TransportError reports a failed call to the weather provider: unreachable endpoint,
// timeout, open circuit or a non-2xx status.
type TransportError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a provider payload that could not be turned into a Record.
type ParseError struct {
	Field string // empty when the payload itself is not valid JSON
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse provider payload: %v", e.Err)
	}
	return fmt.Sprintf("parse provider payload: field %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

package activity

import (
	"errors"
	"fmt"
)

// Validation and lookup errors.
var (
	// ErrNotFound is returned when a partition holds no envelopes.
	ErrNotFound = errors.New("no saved code")

	// ErrInvalidCheckpoint is returned for save names that cannot form a key.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint name")

	// ErrInvalidBody is returned when a save body is not a JSON object.
	ErrInvalidBody = errors.New("save body must be a JSON object")

	// ErrInvalidScope is returned when an envelope has no owner or task.
	ErrInvalidScope = errors.New("envelope scope requires a user id and a task number >= 1")
)

// StorageError reports an object store failure while reading or writing
// the log.
type StorageError struct {
	Op  string
	Key string
	Err error
}

// Error implements error.
func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("activity %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("activity %s %s: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError reports a stored object whose body is not a valid envelope.
type ParseError struct {
	Key string
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("decoding envelope %s: %v", e.Key, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

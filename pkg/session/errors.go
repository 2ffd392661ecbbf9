package session

import "errors"

var (
	// ErrNoSession is returned when a request carries no valid session.
	ErrNoSession = errors.New("not authenticated")

	// ErrInvalidTaskNumber is returned when a task number is missing or < 1.
	ErrInvalidTaskNumber = errors.New("taskNumber must be an integer >= 1")

	// ErrMissingSecret is returned when no cookie signing secret is set.
	ErrMissingSecret = errors.New("session secret is required")
)

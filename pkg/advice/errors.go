package advice

import "errors"

var (
	// ErrMalformedResponse is returned when the backend answered but the
	// answer is not a usable advice object.
	ErrMalformedResponse = errors.New("malformed advice response")

	// ErrMissingAPIKey is returned when a backend is configured without a key.
	ErrMissingAPIKey = errors.New("advice api key is required")
)

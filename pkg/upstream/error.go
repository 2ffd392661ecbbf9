// Package upstream describes failures of the outbound services the platform
// depends on (code execution, advice generation).
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
)

// maxBodyBytes caps how much of an error body is retained.
const maxBodyBytes = 4096

// Error is returned when an upstream call fails at the transport level or
// answers with a non-success status.
type Error struct {
	// Service names the upstream ("execution", "advice").
	Service string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Body is the raw (truncated) response body, kept as text.
	Body string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s service returned %d", e.Service, e.StatusCode)
}

// Unwrap returns the transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may reasonably retry.
func (e *Error) Retryable() bool {
	if e.StatusCode == 0 {
		return true
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// Details returns the error body decoded as JSON when it parses, otherwise
// the raw text. Upstream bodies are never trusted as structured data without
// this step.
func (e *Error) Details() any {
	if e.Body == "" {
		if e.Err != nil {
			return e.Err.Error()
		}
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(e.Body), &v); err == nil {
		return v
	}
	return e.Body
}

// FromResponse builds an Error from a non-success response. The body is
// read (bounded) but not closed.
func FromResponse(service string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	return &Error{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}

// Transport wraps a transport-level failure.
func Transport(service string, err error) *Error {
	return &Error{Service: service, Err: err}
}

// IsTimeout reports whether err was caused by a deadline expiring.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

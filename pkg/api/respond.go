package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/iamharada/stepwise-system/pkg/activity"
	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/session"
	"github.com/iamharada/stepwise-system/pkg/upstream"
)

// Response messages.
const (
	msgUnauthenticated  = "not authenticated"
	msgInvalidBody      = "invalid request body"
	msgNoSavedCode      = "no saved code found"
	msgCorruptSave      = "saved code could not be read"
	msgInternal         = "internal server error"
	msgUpstreamFailed   = "upstream service failed"
	msgUpstreamTimeout  = "upstream service timed out"
	msgMalformedAdvice  = "malformed advice response"
	msgInvalidExecution = "invalid execution response"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// upstreamResponse is the body of 502 and 504 responses.
type upstreamResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps err onto a status code and body.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upErr    *upstream.Error
		parseErr *activity.ParseError
		storeErr *activity.StorageError
	)

	switch {
	case session.IsUnauthenticated(err):
		writeError(w, http.StatusUnauthorized, msgUnauthenticated)

	case errors.Is(err, session.ErrInvalidTaskNumber),
		errors.Is(err, activity.ErrInvalidCheckpoint),
		errors.Is(err, activity.ErrInvalidBody),
		errors.Is(err, activity.ErrInvalidScope):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, activity.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNoSavedCode)

	case errors.As(err, &parseErr):
		h.log.Error("stored envelope is corrupt", "key", parseErr.Key, "error", err)
		writeError(w, http.StatusInternalServerError, msgCorruptSave)

	case errors.As(err, &storeErr):
		h.log.Error("activity storage failure", "op", storeErr.Op, "key", storeErr.Key, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)

	case upstream.IsTimeout(err):
		h.log.Warn("upstream timeout", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusGatewayTimeout, upstreamResponse{
			Error:     msgUpstreamTimeout,
			Retryable: true,
		})

	case errors.As(err, &upErr):
		h.log.Warn("upstream failure", "path", r.URL.Path, "service", upErr.Service, "status", upErr.StatusCode, "error", err)
		writeJSON(w, http.StatusBadGateway, upstreamResponse{
			Error:     msgUpstreamFailed,
			Details:   upErr.Details(),
			Retryable: upErr.Retryable(),
		})

	case errors.Is(err, advice.ErrMalformedResponse):
		h.log.Warn("malformed advice", "error", err)
		writeJSON(w, http.StatusBadGateway, upstreamResponse{
			Error:     msgMalformedAdvice,
			Details:   err.Error(),
			Retryable: true,
		})

	case errors.Is(err, execution.ErrInvalidResponse):
		h.log.Warn("invalid execution response", "error", err)
		writeJSON(w, http.StatusBadGateway, upstreamResponse{
			Error:     msgInvalidExecution,
			Retryable: true,
		})

	default:
		h.log.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

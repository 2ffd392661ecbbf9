package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iamharada/stepwise-system/pkg/activity"
	"github.com/iamharada/stepwise-system/pkg/session"
)

type uploadRequest struct {
	Key  string          `json:"key"`
	Body json.RawMessage `json:"body" swaggertype:"object"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
}

type latestCodeResponse struct {
	Code string `json:"code"`
}

type historyResponse struct {
	TaskNumber int                 `json:"taskNumber"`
	Events     []activity.Envelope `json:"events"`
}

// saveBody accepts the body either as a JSON object or as a string holding
// one.
func saveBody(raw json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return json.RawMessage(s)
	}
	return raw
}

// upload handles POST /upload.
//
// @Summary      Save code
// @Description  Appends a save event for the current task. The body must be a JSON object, or a string holding one; its string "code" member is what load_latest_code returns.
// @Tags         Activity
// @Accept       json
// @Produce      json
// @Param        body  body      uploadRequest  true  "Checkpoint name and body"
// @Success      200   {object}  uploadResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Security     SessionCookie
// @Router       /upload [post]
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	sess := session.FromContext(r.Context())
	env, err := h.deps.Builder.Save(sess.Scope(), req.Key, saveBody(req.Body))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.deps.Timeouts.Storage)
	defer cancel()
	key, err := h.deps.Log.Append(ctx, env)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Message: "saved", Key: key})
}

// taskFromQuery reads ?taskNumber=, defaulting to the session's task.
func taskFromQuery(r *http.Request, sess *session.Session) (int, error) {
	raw := r.URL.Query().Get("taskNumber")
	if raw == "" {
		return sess.TaskNumber, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, session.ErrInvalidTaskNumber
	}
	return n, nil
}

// loadLatestCode handles GET /load_latest_code.
//
// @Summary      Latest code
// @Description  Returns the code of the newest run, advice or save event of a task.
// @Tags         Activity
// @Produce      json
// @Param        taskNumber  query     integer  false  "Task number (default: current task)"
// @Success      200         {object}  latestCodeResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Failure      500         {object}  errorResponse
// @Security     SessionCookie
// @Router       /load_latest_code [get]
func (h *Handler) loadLatestCode(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	task, err := taskFromQuery(r, sess)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.deps.Timeouts.Storage)
	defer cancel()
	code, err := h.deps.Log.ResolveLatest(ctx, sess.UserID, task)

	var storeErr *activity.StorageError
	if errors.As(err, &storeErr) {
		// Read failures look like an empty history to the student.
		h.log.Warn("latest code unavailable", "user_id", sess.UserID, "task_number", task, "error", err)
		writeError(w, http.StatusNotFound, msgNoSavedCode)
		return
	}
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, latestCodeResponse{Code: code})
}

// history handles GET /history.
//
// @Summary      Activity history
// @Description  Lists the events of a task, newest first.
// @Tags         Activity
// @Produce      json
// @Param        taskNumber  query     integer  false  "Task number (default: current task)"
// @Param        limit       query     integer  false  "Maximum events (default: 20, max: 100)"
// @Success      200         {object}  historyResponse
// @Failure      400         {object}  errorResponse
// @Failure      401         {object}  errorResponse
// @Failure      500         {object}  errorResponse
// @Security     SessionCookie
// @Router       /history [get]
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	task, err := taskFromQuery(r, sess)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx, cancel := withTimeout(r.Context(), h.deps.Timeouts.Storage)
	defer cancel()
	events, err := h.deps.Log.History(ctx, sess.UserID, task, limit)
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{TaskNumber: task, Events: events})
}

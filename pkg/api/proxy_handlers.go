package api

import (
	"net/http"

	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/session"
)

type runCodeRequest struct {
	Code       string `json:"code"`
	Language   string `json:"language"`
	Version    string `json:"version,omitempty"`
	Stdin      string `json:"stdin"`
	TaskNumber *int   `json:"taskNumber,omitempty"`
}

type adviceRequest struct {
	Task        string `json:"task"`
	StudentCode string `json:"studentCode"`
	TaskNumber  *int   `json:"taskNumber,omitempty"`
	HintsUsed   *int   `json:"hintsUsed,omitempty"`
}

// runCode handles POST /run-code.
//
// @Summary      Run code
// @Description  Executes the code on the sandbox and returns its answer unchanged. A run event is recorded afterwards.
// @Tags         Proxy
// @Accept       json
// @Produce      json
// @Param        body  body      runCodeRequest  true  "Program"
// @Success      200   {object}  execution.Result
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  upstreamResponse
// @Failure      504   {object}  upstreamResponse
// @Security     SessionCookie
// @Router       /run-code [post]
func (h *Handler) runCode(w http.ResponseWriter, r *http.Request) {
	var req runCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if req.Language == "" {
		writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.switchTask(r, sess, req.TaskNumber); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.deps.Timeouts.Execution)
	defer cancel()
	res, err := h.deps.Executor.Execute(ctx, execution.Request{
		Language: req.Language,
		Version:  req.Version,
		Source:   req.Code,
		Stdin:    req.Stdin,
	})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
	h.deps.Recorder.Record(h.deps.Builder.Run(sess.Scope(), req.Code, res.Run.Stdout, res.Run.Stderr))
}

// aiAdvice handles POST /ai-advice.
//
// @Summary      Request advice
// @Description  Asks the tutor model for stepwise-refinement advice. An ai-help event is recorded only for a well-formed answer.
// @Tags         Proxy
// @Accept       json
// @Produce      json
// @Param        body  body      adviceRequest  true  "Task and code"
// @Success      200   {object}  advice.Result
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      502   {object}  upstreamResponse
// @Failure      504   {object}  upstreamResponse
// @Security     SessionCookie
// @Router       /ai-advice [post]
func (h *Handler) aiAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	sess := session.FromContext(r.Context())
	if err := h.switchTask(r, sess, req.TaskNumber); err != nil {
		h.writeFailure(w, r, err)
		return
	}

	ctx, cancel := withTimeout(r.Context(), h.deps.Timeouts.Advice)
	defer cancel()
	res, err := h.deps.Advisor.Advise(ctx, advice.Request{Task: req.Task, StudentCode: req.StudentCode})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.deps.Recorder.Record(h.deps.Builder.Advice(sess.Scope(), req.StudentCode, res, req.HintsUsed))
	writeJSON(w, http.StatusOK, res)
}

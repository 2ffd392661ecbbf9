package api

import (
	"errors"
	"net/http"

	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"` // #nosec G117 -- request field, never logged
}

type userView struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	TaskNumber int    `json:"taskNumber"`
}

func viewOf(s *session.Session) userView {
	return userView{UserID: s.UserID, Username: s.Username, TaskNumber: s.TaskNumber}
}

type loginResponse struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

type sessionResponse struct {
	User userView `json:"user"`
}

type setTaskRequest struct {
	TaskNumber *int `json:"taskNumber"`
}

type setTaskResponse struct {
	Message    string `json:"message"`
	TaskNumber int    `json:"taskNumber"`
}

// login handles POST /login.
//
// @Summary      Log in
// @Description  Checks the credentials and starts a session on task 1. The session cookie is set on success.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /login [post]
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	u, err := h.deps.Auth.Authenticate(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Info("login rejected", "username", req.Username)
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	sess, err := h.deps.Sessions.Start(r.Context(), w, session.User{UserID: u.UserID, Username: u.Username})
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}

	h.log.Info("login", "user_id", u.UserID)
	writeJSON(w, http.StatusOK, loginResponse{Message: "login succeeded", User: viewOf(sess)})
}

// logout handles POST /logout.
//
// @Summary      Log out
// @Description  Destroys the current session, if any, and clears the cookie.
// @Tags         Session
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      500  {object}  errorResponse
// @Router       /logout [post]
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var id string
	if sess, err := h.deps.Sessions.Current(r); err == nil {
		id = sess.ID
	}
	if err := h.deps.Sessions.Destroy(r.Context(), w, id); err != nil {
		h.log.Error("logout failed", "error", err)
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// currentSession handles GET /session.
//
// @Summary      Current session
// @Tags         Session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Security     SessionCookie
// @Router       /session [get]
func (*Handler) currentSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionResponse{User: viewOf(session.FromContext(r.Context()))})
}

// setTask handles POST /set-task.
//
// @Summary      Switch task
// @Description  Sets the current task number. A missing or non-positive number is rejected and leaves the session unchanged.
// @Tags         Session
// @Accept       json
// @Produce      json
// @Param        body  body      setTaskRequest  true  "Task number"
// @Success      200   {object}  setTaskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Security     SessionCookie
// @Router       /set-task [post]
func (h *Handler) setTask(w http.ResponseWriter, r *http.Request) {
	var req setTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	sess := session.FromContext(r.Context())
	n := 0
	if req.TaskNumber != nil {
		n = *req.TaskNumber
	}
	if err := h.deps.Sessions.SetTask(r.Context(), sess, n); err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setTaskResponse{Message: "task updated", TaskNumber: sess.TaskNumber})
}

// switchTask applies an optional task number carried by a request body.
func (h *Handler) switchTask(r *http.Request, sess *session.Session, taskNumber *int) error {
	if taskNumber == nil {
		return nil
	}
	return h.deps.Sessions.SetTask(r.Context(), sess, *taskNumber)
}

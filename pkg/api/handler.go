// Package api exposes the student-facing HTTP endpoints: login and task
// selection, code execution, advice, explicit saves and restoring the
// latest saved code.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/iamharada/stepwise-system/pkg/activity"
	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/health"
	"github.com/iamharada/stepwise-system/pkg/session"
)

const (
	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Authenticator checks credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*auth.User, error)
}

// ActivityLog is the synchronous side of the activity log.
type ActivityLog interface {
	Append(ctx context.Context, env activity.Envelope) (string, error)
	ResolveLatest(ctx context.Context, userID string, taskNumber int) (string, error)
	History(ctx context.Context, userID string, taskNumber, limit int) ([]activity.Envelope, error)
}

// Recorder appends envelopes off the request path.
type Recorder interface {
	Record(env activity.Envelope) bool
}

// Timeouts bounds outbound calls made while serving a request.
type Timeouts struct {
	Storage   time.Duration
	Execution time.Duration
	Advice    time.Duration
}

// Deps are the collaborators of the Handler.
type Deps struct {
	Auth     Authenticator
	Sessions *session.Manager
	Log      ActivityLog
	Recorder Recorder
	Builder  *activity.Builder
	Executor execution.Client
	Advisor  advice.Client
	Health   *health.Checker
	Logger   *slog.Logger
	Timeouts Timeouts

	// AllowedOrigin enables credentialed CORS for one browser origin.
	AllowedOrigin string

	// StaticDir, when set, is served for paths no endpoint claims.
	StaticDir string
}

// Handler serves the API.
type Handler struct {
	deps Deps
	mux  *http.ServeMux
	log  *slog.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Builder == nil {
		deps.Builder = activity.NewBuilder()
	}
	if deps.Health == nil {
		deps.Health = health.NewChecker()
	}
	h := &Handler{
		deps: deps,
		mux:  http.NewServeMux(),
		log:  deps.Logger,
	}
	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logRequests(h.cors(h.mux)).ServeHTTP(w, r)
}

// registerRoutes registers all API routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /login", h.login)
	h.mux.HandleFunc("POST /logout", h.logout)
	h.mux.HandleFunc("GET /session", h.requireSession(h.currentSession))
	h.mux.HandleFunc("POST /set-task", h.requireSession(h.setTask))

	h.mux.HandleFunc("POST /upload", h.requireSession(h.upload))
	h.mux.HandleFunc("GET /load_latest_code", h.requireSession(h.loadLatestCode))
	h.mux.HandleFunc("GET /history", h.requireSession(h.history))

	h.mux.HandleFunc("POST /run-code", h.requireSession(h.runCode))
	h.mux.HandleFunc("POST /ai-advice", h.requireSession(h.aiAdvice))

	h.mux.HandleFunc("GET /healthz", h.deps.Health.LivenessHandler())
	h.mux.HandleFunc("GET /readyz", h.deps.Health.ReadinessHandler())

	// API docs; the document is registered by internal/apidocs.
	h.mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if h.deps.StaticDir != "" {
		h.mux.Handle("GET /", http.FileServer(http.Dir(h.deps.StaticDir)))
	}
}

// requireSession rejects requests without a session and stores the
// session in the request context.
func (h *Handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.deps.Sessions.Current(r)
		if err != nil {
			h.writeFailure(w, r, err)
			return
		}
		next(w, r.WithContext(session.WithSession(r.Context(), sess)))
	}
}

// cors allows the configured origin to call the API with credentials.
func (h *Handler) cors(next http.Handler) http.Handler {
	if h.deps.AllowedOrigin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin == h.deps.AllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// decodeJSON reads a bounded JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// withTimeout derives a context bounded by d when d > 0.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultCookieName is the session cookie name.
	DefaultCookieName = "stepwise_session"

	// DefaultTTL is how long a session lives after login.
	DefaultTTL = 24 * time.Hour

	// sessionIDBytes is the number of random bytes for session ID generation.
	sessionIDBytes = 16
)

// Config configures a Manager.
type Config struct {
	TTL          time.Duration
	CookieName   string
	Secret       []byte
	Issuer       string
	SecureCookie bool
}

// User is the identity a session is started for.
type User struct {
	UserID   string
	Username string
}

// Manager ties sessions to HTTP cookies.
type Manager struct {
	store  Store
	cfg    Config
	tokens *tokenCodec
	now    func() time.Time
}

// NewManager creates a Manager over store.
func NewManager(store Store, cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrMissingSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	m := &Manager{store: store, cfg: cfg, now: time.Now}
	m.tokens = &tokenCodec{secret: cfg.Secret, issuer: cfg.Issuer, now: func() time.Time { return m.now() }}
	return m, nil
}

// Start creates a session on task 1 for user and sets the cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, user User) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	now := m.now()
	sess := &Session{
		ID:         id,
		UserID:     user.UserID,
		Username:   user.Username,
		TaskNumber: 1,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.cfg.TTL),
	}

	token, err := m.tokens.sign(sess.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	http.SetCookie(w, m.cookie(token, sess.ExpiresAt))
	slog.Debug("session: created", "user_id", sess.UserID)
	return sess, nil
}

// Current returns the session named by the request cookie. Missing,
// tampered and expired sessions all yield ErrNoSession.
func (m *Manager) Current(r *http.Request) (*Session, error) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	id, err := m.tokens.verify(c.Value)
	if err != nil {
		slog.Debug("session: rejected cookie", "error", err)
		return nil, ErrNoSession
	}

	sess, err := m.store.Get(r.Context(), id)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess == nil {
		return nil, ErrNoSession
	}
	return sess, nil
}

// SetTask switches the session to taskNumber. A task number below 1 is
// rejected and leaves the session unchanged.
func (m *Manager) SetTask(ctx context.Context, sess *Session, taskNumber int) error {
	if sess == nil {
		return ErrNoSession
	}
	if taskNumber < 1 {
		return ErrInvalidTaskNumber
	}
	if err := m.store.SetTask(ctx, sess.ID, taskNumber); err != nil {
		return fmt.Errorf("setting task: %w", err)
	}
	sess.TaskNumber = taskNumber
	return nil
}

// Destroy deletes session id, if any, and clears the cookie. Only store
// failures are reported.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, id string) error {
	http.SetCookie(w, m.cookie("", time.Unix(0, 0)))
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (m *Manager) cookie(value string, expires time.Time) *http.Cookie {
	c := &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	}
	return c
}

// generateSessionID creates a cryptographically random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsUnauthenticated reports whether err means the caller has no session.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrNoSession)
}

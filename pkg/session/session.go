// Package session tracks authenticated students and the task they are
// working on. A session is created at login with task 1, changes task only
// through SetTask, and expires a fixed TTL after creation.
package session

import (
	"context"
	"time"

	"github.com/iamharada/stepwise-system/pkg/activity"
)

// Session represents a logged-in student.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"-"`

	// UserID is the stable student identifier used in activity keys.
	UserID string `json:"userId"`

	// Username is the login name.
	Username string `json:"username"`

	// TaskNumber is the current task, always >= 1.
	TaskNumber int `json:"taskNumber"`

	// CreatedAt is when the student logged in.
	CreatedAt time.Time `json:"-"`

	// ExpiresAt is CreatedAt plus the configured TTL. It is never extended.
	ExpiresAt time.Time `json:"-"`
}

// Scope returns the activity scope for the session's current task.
func (s *Session) Scope() activity.Scope {
	return activity.Scope{
		UserID:     s.UserID,
		Username:   s.Username,
		TaskNumber: s.TaskNumber,
	}
}

// Store defines the interface for session persistence.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by ID. Returns nil, nil if not found or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// SetTask records the session's current task. Unknown ids are ignored.
	SetTask(ctx context.Context, id string, taskNumber int) error

	// Delete removes a session. Deleting a missing session succeeds.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close stops background routines and releases resources.
	Close() error
}

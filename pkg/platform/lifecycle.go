package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Hook is a named start or stop step.
type Hook func(context.Context) error

type namedHook struct {
	name  string
	start Hook
	stop  Hook
}

// Lifecycle starts components in registration order and stops them in
// reverse.
type Lifecycle struct {
	mu      sync.Mutex
	hooks   []namedHook
	started bool
	logger  *slog.Logger
}

// NewLifecycle creates a lifecycle manager. A nil logger uses slog.Default().
func NewLifecycle(logger *slog.Logger) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{logger: logger}
}

// Register adds a component. Either hook may be nil.
func (l *Lifecycle) Register(name string, start, stop Hook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, namedHook{name: name, start: start, stop: stop})
}

// OnStop registers a stop-only hook.
func (l *Lifecycle) OnStop(name string, stop Hook) {
	l.Register(name, nil, stop)
}

// RegisterCloser stops c by closing it.
func (l *Lifecycle) RegisterCloser(name string, c interface{ Close() error }) {
	l.OnStop(name, func(context.Context) error { return c.Close() })
}

// Start runs all start hooks. If one fails, the hooks already started are
// stopped in reverse order.
func (l *Lifecycle) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.started {
		return errors.New("lifecycle already started")
	}

	for i, h := range l.hooks {
		if h.start == nil {
			continue
		}
		if err := h.start(ctx); err != nil {
			l.stopFrom(ctx, i-1)
			return fmt.Errorf("starting %s: %w", h.name, err)
		}
	}
	l.started = true
	return nil
}

// Stop runs every stop hook in reverse order, collecting errors. A stopped
// lifecycle cannot be started again.
func (l *Lifecycle) Stop(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.started {
		return nil
	}
	err := l.stopFrom(ctx, len(l.hooks)-1)
	l.hooks = nil
	l.started = false
	return err
}

// Close stops every registered hook whether or not Start ran. It is used
// when construction fails part way.
func (l *Lifecycle) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.stopFrom(ctx, len(l.hooks)-1)
	l.hooks = nil
	l.started = false
	return err
}

// IsStarted returns whether the lifecycle has been started.
func (l *Lifecycle) IsStarted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.started
}

func (l *Lifecycle) stopFrom(ctx context.Context, last int) error {
	var errs []error
	for i := last; i >= 0; i-- {
		h := l.hooks[i]
		if h.stop == nil {
			continue
		}
		if err := h.stop(ctx); err != nil {
			l.logger.Warn("lifecycle stop hook failed", "component", h.name, "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", h.name, err))
		}
	}
	return errors.Join(errs...)
}

package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Recorder defaults.
const (
	DefaultQueueSize    = 256
	DefaultWorkers      = 2
	DefaultWriteTimeout = 10 * time.Second
)

// Appender writes one envelope.
type Appender interface {
	Append(ctx context.Context, env Envelope) (string, error)
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// RecorderStats counts detached writes.
type RecorderStats struct {
	Written int64 `json:"written"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Pending int   `json:"pending"`
}

// Recorder appends envelopes off the request path. Writes are queued and
// performed by a fixed set of workers, each with its own timeout. Failures
// never reach the caller; they are logged and counted.
type Recorder struct {
	appender Appender
	logger   *slog.Logger
	timeout  time.Duration
	queue    chan Envelope
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewRecorder starts a Recorder. A nil logger uses slog.Default().
func NewRecorder(appender Appender, cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		appender: appender,
		logger:   logger,
		timeout:  cfg.WriteTimeout,
		queue:    make(chan Envelope, cfg.QueueSize),
	}
	for range cfg.Workers {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// Record enqueues env without blocking. It reports false when the envelope
// was dropped because the queue is full or the recorder is closed.
func (r *Recorder) Record(env Envelope) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(env, "recorder closed")
		return false
	}
	select {
	case r.queue <- env:
		return true
	default:
		r.drop(env, "queue full")
		return false
	}
}

func (r *Recorder) drop(env Envelope, reason string) {
	r.dropped.Add(1)
	r.logger.Error("activity envelope dropped",
		"reason", reason,
		"user_id", env.UserID,
		"task_number", env.TaskNumber,
		"event", env.Event,
	)
}

func (r *Recorder) work() {
	defer r.wg.Done()
	for env := range r.queue {
		r.write(env)
	}
}

func (r *Recorder) write(env Envelope) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.appender.Append(ctx, env); err != nil {
		r.failed.Add(1)
		r.logger.Error("activity append failed",
			"user_id", env.UserID,
			"task_number", env.TaskNumber,
			"event", env.Event,
			"error", err,
		)
		return
	}
	r.written.Add(1)
}

// Stats returns the current counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Written: r.written.Load(),
		Failed:  r.failed.Load(),
		Dropped: r.dropped.Load(),
		Pending: len(r.queue),
	}
}

// Close stops accepting envelopes and waits for queued writes to finish or
// ctx to end. It is safe to call more than once.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

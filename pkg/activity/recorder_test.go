package activity

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamharada/stepwise-system/pkg/storage"
)

// blockingAppender holds every Append until release is closed.
type blockingAppender struct {
	release chan struct{}
	mu      sync.Mutex
	got     []Envelope
}

func (b *blockingAppender) Append(ctx context.Context, env Envelope) (string, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, env)
	return env.Key(), nil
}

type errAppender struct{ err error }

func (e errAppender) Append(context.Context, Envelope) (string, error) {
	return "", e.err
}

func syncBuffer() (*slog.Logger, *lockedBuffer) {
	buf := &lockedBuffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func TestRecorder_WritesAndDrains(t *testing.T) {
	p := storage.NewMemoryProvider()
	s := NewStore(p, nil)
	r := NewRecorder(s, RecorderConfig{QueueSize: 8, Workers: 2}, nil)

	for i := range 5 {
		assert.True(t, r.Record(NewRunEnvelope(activityTestScope, string(rune('a'+i)), "", "")))
	}
	require.NoError(t, r.Close(context.Background()))

	keys, err := s.ListPartition(context.Background(), activityTestUserID, 2)
	require.NoError(t, err)
	assert.Len(t, keys, 5)
	assert.Equal(t, RecorderStats{Written: 5}, r.Stats())
}

func TestRecorder_FailuresAreLoggedNotReturned(t *testing.T) {
	logger, buf := syncBuffer()
	r := NewRecorder(errAppender{err: errors.New("bucket gone")}, RecorderConfig{Workers: 1}, logger)

	assert.True(t, r.Record(NewRunEnvelope(activityTestScope, "c", "", "")))
	require.NoError(t, r.Close(context.Background()))

	assert.Equal(t, int64(1), r.Stats().Failed)
	assert.Contains(t, buf.String(), "activity append failed")
	assert.Contains(t, buf.String(), "bucket gone")
	assert.Contains(t, buf.String(), "level=ERROR")
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	logger, buf := syncBuffer()
	app := &blockingAppender{release: make(chan struct{})}
	r := NewRecorder(app, RecorderConfig{QueueSize: 1, Workers: 1, WriteTimeout: time.Minute}, logger)

	// The worker takes the first envelope and blocks; the second fills the
	// queue; the rest are dropped.
	assert.True(t, r.Record(NewRunEnvelope(activityTestScope, "1", "", "")))
	assert.Eventually(t, func() bool { return r.Stats().Pending == 0 }, time.Second, time.Millisecond)
	assert.True(t, r.Record(NewRunEnvelope(activityTestScope, "2", "", "")))
	assert.False(t, r.Record(NewRunEnvelope(activityTestScope, "3", "", "")))

	close(app.release)
	require.NoError(t, r.Close(context.Background()))

	stats := r.Stats()
	assert.Equal(t, int64(2), stats.Written)
	assert.Equal(t, int64(1), stats.Dropped)
	assert.Contains(t, buf.String(), "queue full")
}

func TestRecorder_WriteTimeout(t *testing.T) {
	app := &blockingAppender{release: make(chan struct{})}
	r := NewRecorder(app, RecorderConfig{Workers: 1, WriteTimeout: 10 * time.Millisecond}, slog.New(slog.DiscardHandler))

	r.Record(NewRunEnvelope(activityTestScope, "slow", "", ""))
	require.NoError(t, r.Close(context.Background()))
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestRecorder_CloseIsIdempotentAndRejectsLateRecords(t *testing.T) {
	r := NewRecorder(errAppender{}, RecorderConfig{}, slog.New(slog.DiscardHandler))
	require.NoError(t, r.Close(context.Background()))
	require.NoError(t, r.Close(context.Background()))

	assert.False(t, r.Record(NewRunEnvelope(activityTestScope, "late", "", "")))
	assert.Equal(t, int64(1), r.Stats().Dropped)
}

func TestRecorder_CloseHonorsContext(t *testing.T) {
	app := &blockingAppender{release: make(chan struct{})}
	defer close(app.release)
	r := NewRecorder(app, RecorderConfig{Workers: 1, WriteTimeout: time.Minute}, slog.New(slog.DiscardHandler))
	r.Record(NewRunEnvelope(activityTestScope, "stuck", "", ""))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Close(ctx), context.DeadlineExceeded)
}

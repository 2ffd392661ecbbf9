//go:build integration

package platform

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPlatform_PostgresSessions boots the platform with sessions persisted
// in PostgreSQL, which also exercises the migrations on startup.
func TestPlatform_PostgresSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stepwise"),
		tcpostgres.WithUsername("stepwise"),
		tcpostgres.WithPassword("stepwise"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	defer func() { _ = pgContainer.Terminate(ctx) }()

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := testPlatformConfig(t.TempDir())
	cfg.Session.Store = SessionStorePostgres
	cfg.Database.DSN = dsn
	require.NoError(t, cfg.Validate())

	p, err := New(ctx,
		WithConfig(cfg),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithExecutor(stubExecutor{}),
		WithAdvisor(stubAdvisor{}),
	)
	require.NoError(t, err)
	defer func() { _ = p.Stop(ctx) }()
	require.NoError(t, p.Start(ctx))

	h := p.Handler()
	rec := serve(t, h, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, h, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "password1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()

	rec = serve(t, h, http.MethodPost, "/set-task", map[string]int{"taskNumber": 4}, cookies)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodGet, "/session", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"taskNumber":4`)
}

package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/storage"
)

type stubExecutor struct{}

func (stubExecutor) Execute(_ context.Context, req execution.Request) (*execution.Result, error) {
	return &execution.Result{
		Language: req.Language,
		Version:  execution.DefaultVersion,
		Run:      execution.Stage{Stdout: "ok\n"},
	}, nil
}

type stubAdvisor struct{}

func (stubAdvisor) Advise(context.Context, advice.Request) (*advice.Result, error) {
	return &advice.Result{EstimatedStage: advice.StageCoding}, nil
}

// testPlatformConfig returns a valid config whose stores live under dir.
func testPlatformConfig(dir string) *Config {
	cfg := validTestConfig()
	cfg.Auth.UsersFile = filepath.Join(dir, "users.json")
	cfg.Auth.SQLitePath = filepath.Join(dir, "users.db")
	cfg.Auth.SeedUsers = []auth.SeedUser{{UserID: "user_001", Username: "alice", Password: "password1"}}
	return cfg
}

func newTestPlatform(t *testing.T, cfg *Config, opts ...Option) *Platform {
	t.Helper()
	opts = append([]Option{
		WithConfig(cfg),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithExecutor(stubExecutor{}),
		WithAdvisor(stubAdvisor{}),
	}, opts...)
	p, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Stop(context.Background()) })
	return p
}

func serve(t *testing.T, h http.Handler, method, target string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background())
	assert.Error(t, err)
}

func TestNew_UnknownComponents(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"storage", func(c *Config) { c.Storage.Provider = "gcs" }},
		{"session store", func(c *Config) { c.Session.Store = "redis" }},
		{"auth store", func(c *Config) { c.Auth.Store = "ldap" }},
		{"missing secret", func(c *Config) { c.Session.Secret = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testPlatformConfig(t.TempDir())
			tt.mutate(cfg)
			_, err := New(context.Background(),
				WithConfig(cfg),
				WithLogger(slog.New(slog.DiscardHandler)),
				WithExecutor(stubExecutor{}),
				WithAdvisor(stubAdvisor{}),
			)
			assert.Error(t, err)
		})
	}
}

func TestNew_AdvisorFromConfig(t *testing.T) {
	cfg := testPlatformConfig(t.TempDir())
	p, err := New(context.Background(),
		WithConfig(cfg),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	defer func() { _ = p.Stop(context.Background()) }()
	assert.IsType(t, &advice.OpenAIClient{}, p.advisor)
	assert.IsType(t, &execution.PistonClient{}, p.executor)

	cfg = testPlatformConfig(t.TempDir())
	cfg.Advice.PromptFile = filepath.Join(t.TempDir(), "missing.tmpl")
	_, err = New(context.Background(), WithConfig(cfg), WithLogger(slog.New(slog.DiscardHandler)))
	assert.Error(t, err)
}

func TestPlatform_EndToEnd(t *testing.T) {
	cfg := testPlatformConfig(t.TempDir())
	p := newTestPlatform(t, cfg)
	h := p.Handler()

	rec := serve(t, h, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before Start")

	require.NoError(t, p.Start(context.Background()))
	rec = serve(t, h, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, h, http.MethodPost, "/login", map[string]string{"username": "alice", "password": "password1"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cookies := rec.Result().Cookies()

	rec = serve(t, h, http.MethodPost, "/run-code", map[string]any{"code": "int main(){}", "language": "c", "taskNumber": 2}, cookies)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Stop drains the recorder before the store closes.
	require.NoError(t, p.Stop(context.Background()))
	assert.Equal(t, int64(1), p.Recorder().Stats().Written)

	code, err := p.ActivityLog().ResolveLatest(context.Background(), "user_001", 2)
	require.NoError(t, err)
	assert.Equal(t, "int main(){}", code)

	rec = serve(t, h, http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPlatform_SeedIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := newTestPlatform(t, testPlatformConfig(dir))
	require.NoError(t, p.Stop(context.Background()))

	// A second boot over the same users file keeps the existing user.
	store, err := OpenCredentialStore(testPlatformConfig(dir).Auth)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	u, err := store.Lookup(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, u)

	p = newTestPlatform(t, testPlatformConfig(dir))
	require.NoError(t, p.Start(context.Background()))
}

func TestPlatform_BadgerAndSQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := testPlatformConfig(dir)
	cfg.Storage.Provider = StorageBadger
	cfg.Storage.Badger.Dir = filepath.Join(dir, "activity")
	cfg.Auth.Store = AuthStoreSQLite

	p := newTestPlatform(t, cfg)
	require.NoError(t, p.Start(context.Background()))

	rec := serve(t, p.Handler(), http.MethodGet, "/readyz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, p.Handler(), http.MethodPost, "/login", map[string]string{"username": "alice", "password": "password1"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlatform_InjectedStorage(t *testing.T) {
	provider := storage.NewMemoryProvider()
	p := newTestPlatform(t, testPlatformConfig(t.TempDir()), WithStorageProvider(provider))
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Stop(context.Background()))

	// Injected components are owned by the caller.
	_, err := provider.List(context.Background(), "log/")
	assert.NoError(t, err)
}

func TestPlatform_StopWithoutStart(t *testing.T) {
	p := newTestPlatform(t, testPlatformConfig(t.TempDir()))
	assert.NoError(t, p.Stop(context.Background()))
	assert.NoError(t, p.Stop(context.Background()))
}

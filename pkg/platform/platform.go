package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/iamharada/stepwise-system/pkg/activity"
	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/api"
	"github.com/iamharada/stepwise-system/pkg/auth"
	authsqlite "github.com/iamharada/stepwise-system/pkg/auth/sqlite"
	"github.com/iamharada/stepwise-system/pkg/database/migrate"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/health"
	"github.com/iamharada/stepwise-system/pkg/session"
	sessionpg "github.com/iamharada/stepwise-system/pkg/session/postgres"
	"github.com/iamharada/stepwise-system/pkg/storage"
	"github.com/iamharada/stepwise-system/pkg/storage/badger"
	"github.com/iamharada/stepwise-system/pkg/storage/s3"
)

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// cleaner is implemented by session stores that expire rows themselves.
type cleaner interface {
	StartCleanupRoutine(interval time.Duration)
}

// Platform is the assembled application.
type Platform struct {
	config    *Config
	logger    *slog.Logger
	lifecycle *Lifecycle
	health    *health.Checker

	provider    storage.Provider
	sessions    session.Store
	credentials auth.CredentialStore
	log         *activity.Store
	recorder    *activity.Recorder
	executor    execution.Client
	advisor     advice.Client

	handler *api.Handler
}

// New creates a platform instance. Resources opened before a failure are
// released before New returns.
func New(ctx context.Context, opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.Config == nil {
		return nil, errors.New("config is required")
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	p := &Platform{
		config:    options.Config,
		logger:    options.Logger,
		lifecycle: NewLifecycle(options.Logger),
		health:    health.NewChecker(),
	}

	if err := p.initializeComponents(ctx, options); err != nil {
		_ = p.lifecycle.Close(ctx)
		return nil, fmt.Errorf("initializing components: %w", err)
	}
	return p, nil
}

// initializeComponents creates the components in dependency order.
func (p *Platform) initializeComponents(ctx context.Context, opts *Options) error {
	if err := p.initStorage(ctx, opts); err != nil {
		return err
	}
	if err := p.initSessions(opts); err != nil {
		return err
	}
	if err := p.initCredentials(ctx, opts); err != nil {
		return err
	}
	p.initActivity()
	if err := p.initClients(ctx, opts); err != nil {
		return err
	}
	return p.initHandler()
}

// initStorage opens the activity log object store.
func (p *Platform) initStorage(ctx context.Context, opts *Options) error {
	if opts.StorageProvider != nil {
		p.provider = opts.StorageProvider
	} else {
		provider, err := p.createStorageProvider(ctx)
		if err != nil {
			return fmt.Errorf("creating storage provider: %w", err)
		}
		p.provider = provider
		p.lifecycle.RegisterCloser("storage", provider)
	}
	p.health.AddProbe("storage", func(ctx context.Context) error {
		return storage.Ping(ctx, p.provider)
	})
	return nil
}

func (p *Platform) createStorageProvider(ctx context.Context) (storage.Provider, error) {
	cfg := p.config.Storage
	switch cfg.Provider {
	case StorageS3:
		return s3.NewFromConfig(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	case StorageBadger:
		return badger.Open(badger.Config{Dir: cfg.Badger.Dir})
	case StorageMemory:
		p.logger.Warn("using in-memory activity storage; saved code is lost on restart")
		return storage.NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

// initSessions creates the session store.
func (p *Platform) initSessions(opts *Options) error {
	if opts.SessionStore != nil {
		p.sessions = opts.SessionStore
		return nil
	}

	switch p.config.Session.Store {
	case SessionStoreMemory:
		p.sessions = session.NewMemoryStore()
	case SessionStorePostgres:
		db, err := p.openDatabase(opts)
		if err != nil {
			return err
		}
		store := sessionpg.New(db)
		p.sessions = store
		p.health.AddProbe("sessions", store.Ping)
	default:
		return fmt.Errorf("unknown session store %q", p.config.Session.Store)
	}

	if c, ok := p.sessions.(cleaner); ok {
		c.StartCleanupRoutine(p.config.Session.CleanupInterval)
	}
	p.lifecycle.RegisterCloser("sessions", p.sessions)
	return nil
}

// openDatabase returns the injected database or opens database.dsn, and
// applies pending migrations.
func (p *Platform) openDatabase(opts *Options) (*sql.DB, error) {
	db := opts.DB
	if db == nil {
		var err error
		db, err = sql.Open("postgres", p.config.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		db.SetMaxOpenConns(p.config.Database.MaxOpenConns)
		p.lifecycle.RegisterCloser("database", db)
	}
	if err := migrate.Run(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// initCredentials opens the credential store and seeds configured users.
func (p *Platform) initCredentials(ctx context.Context, opts *Options) error {
	if opts.CredentialStore != nil {
		p.credentials = opts.CredentialStore
	} else {
		store, err := OpenCredentialStore(p.config.Auth)
		if err != nil {
			return err
		}
		p.credentials = store
		p.lifecycle.RegisterCloser("credentials", store)
	}
	if pg, ok := p.credentials.(pinger); ok {
		p.health.AddProbe("credentials", pg.Ping)
	}
	if err := auth.Seed(ctx, p.credentials, p.config.Auth.SeedUsers); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}
	return nil
}

// OpenCredentialStore opens the configured credential store.
func OpenCredentialStore(cfg AuthConfig) (auth.CredentialStore, error) {
	switch cfg.Store {
	case AuthStoreFile:
		store, err := auth.OpenFileStore(cfg.UsersFile)
		if err != nil {
			return nil, fmt.Errorf("opening users file: %w", err)
		}
		return store, nil
	case AuthStoreSQLite:
		store, err := authsqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening users database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown auth store %q", cfg.Store)
	}
}

// initActivity creates the activity log and its background recorder. The
// recorder drains before the object store closes.
func (p *Platform) initActivity() {
	p.log = activity.NewStore(p.provider, p.logger)
	p.recorder = activity.NewRecorder(p.log, activity.RecorderConfig{
		QueueSize:    p.config.Activity.QueueSize,
		Workers:      p.config.Activity.Workers,
		WriteTimeout: p.config.Timeouts.Storage,
	}, p.logger)
	p.lifecycle.OnStop("recorder", p.recorder.Close)
}

// initClients creates the execution and advice clients.
func (p *Platform) initClients(ctx context.Context, opts *Options) error {
	p.executor = opts.Executor
	if p.executor == nil {
		p.executor = execution.NewPistonClient(execution.PistonConfig{
			URL:     p.config.Execution.URL,
			Version: p.config.Execution.Version,
		}, nil)
	}

	if opts.Advisor != nil {
		p.advisor = opts.Advisor
		return nil
	}
	advisor, err := p.createAdvisor(ctx)
	if err != nil {
		return fmt.Errorf("creating advice client: %w", err)
	}
	p.advisor = advisor
	return nil
}

func (p *Platform) createAdvisor(ctx context.Context) (advice.Client, error) {
	cfg := p.config.Advice
	prompt, err := advice.LoadPrompt(cfg.PromptFile)
	if err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case AdviceOpenAI:
		return advice.NewOpenAIClient(advice.OpenAIConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		}, prompt, nil)
	case AdviceGemini:
		return advice.NewGeminiClient(ctx, advice.GeminiConfig{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
		}, prompt)
	default:
		return nil, fmt.Errorf("unknown advice provider %q", cfg.Provider)
	}
}

// initHandler assembles the HTTP handler.
func (p *Platform) initHandler() error {
	manager, err := session.NewManager(p.sessions, session.Config{
		TTL:          p.config.Session.TTL,
		CookieName:   p.config.Session.CookieName,
		Secret:       []byte(p.config.Session.Secret),
		SecureCookie: p.config.Session.SecureCookie,
	})
	if err != nil {
		return fmt.Errorf("creating session manager: %w", err)
	}

	p.handler = api.New(api.Deps{
		Auth:     auth.NewAuthenticator(p.credentials),
		Sessions: manager,
		Log:      p.log,
		Recorder: p.recorder,
		Executor: p.executor,
		Advisor:  p.advisor,
		Health:   p.health,
		Logger:   p.logger,
		Timeouts: api.Timeouts{
			Storage:   p.config.Timeouts.Storage,
			Execution: p.config.Timeouts.Execution,
			Advice:    p.config.Timeouts.Advice,
		},
		AllowedOrigin: p.config.Server.AllowedOrigin,
		StaticDir:     p.config.Server.StaticDir,
	})

	// Registered last so readiness flips to draining before anything closes.
	p.lifecycle.Register("health",
		func(context.Context) error { p.health.SetReady(); return nil },
		func(context.Context) error { p.health.SetDraining(); return nil },
	)
	return nil
}

// Start marks the platform ready.
func (p *Platform) Start(ctx context.Context) error {
	return p.lifecycle.Start(ctx)
}

// Stop drains the recorder and closes every component. It is safe to call
// whether or not Start succeeded.
func (p *Platform) Stop(ctx context.Context) error {
	if p.lifecycle.IsStarted() {
		return p.lifecycle.Stop(ctx)
	}
	return p.lifecycle.Close(ctx)
}

// Handler returns the HTTP handler.
func (p *Platform) Handler() http.Handler {
	return p.handler
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Health returns the health checker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// ActivityLog returns the activity log store.
func (p *Platform) ActivityLog() *activity.Store {
	return p.log
}

// Recorder returns the background recorder.
func (p *Platform) Recorder() *activity.Recorder {
	return p.recorder
}

package platform

import (
	"database/sql"
	"log/slog"

	"github.com/iamharada/stepwise-system/pkg/advice"
	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/session"
	"github.com/iamharada/stepwise-system/pkg/storage"
)

// Options configures the platform. Components left nil are created from
// Config.
type Options struct {
	// Config is the platform configuration.
	Config *Config

	Logger *slog.Logger

	// DB is used by the postgres session store instead of opening
	// database.dsn.
	DB *sql.DB

	StorageProvider storage.Provider
	SessionStore    session.Store
	CredentialStore auth.CredentialStore
	Executor        execution.Client
	Advisor         advice.Client
}

// Option is a functional option for configuring the platform.
type Option func(*Options)

// WithConfig sets the configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithDB sets the database connection.
func WithDB(db *sql.DB) Option {
	return func(o *Options) {
		o.DB = db
	}
}

// WithStorageProvider sets the activity log object store.
func WithStorageProvider(p storage.Provider) Option {
	return func(o *Options) {
		o.StorageProvider = p
	}
}

// WithSessionStore sets the session store.
func WithSessionStore(s session.Store) Option {
	return func(o *Options) {
		o.SessionStore = s
	}
}

// WithCredentialStore sets the credential store.
func WithCredentialStore(s auth.CredentialStore) Option {
	return func(o *Options) {
		o.CredentialStore = s
	}
}

// WithExecutor sets the code execution client.
func WithExecutor(c execution.Client) Option {
	return func(o *Options) {
		o.Executor = c
	}
}

// WithAdvisor sets the advice client.
func WithAdvisor(c advice.Client) Option {
	return func(o *Options) {
		o.Advisor = c
	}
}

// Package platform wires the stepwise components together from configuration.
package platform

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iamharada/stepwise-system/pkg/activity"
	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/execution"
	"github.com/iamharada/stepwise-system/pkg/session"
)

// CurrentConfigVersion is the only config API version understood.
const CurrentConfigVersion = "v1"

// Store and provider names accepted in the configuration.
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"

	AuthStoreFile   = "file"
	AuthStoreSQLite = "sqlite"

	StorageS3     = "s3"
	StorageBadger = "badger"
	StorageMemory = "memory"

	AdviceOpenAI = "openai"
	AdviceGemini = "gemini"
)

// Config holds the complete configuration.
type Config struct {
	APIVersion string          `yaml:"apiVersion"`
	Server     ServerConfig    `yaml:"server"`
	Logging    LoggingConfig   `yaml:"logging"`
	Session    SessionConfig   `yaml:"session"`
	Database   DatabaseConfig  `yaml:"database"`
	Auth       AuthConfig      `yaml:"auth"`
	Storage    StorageConfig   `yaml:"storage"`
	Activity   ActivityConfig  `yaml:"activity"`
	Execution  ExecutionConfig `yaml:"execution"`
	Advice     AdviceConfig    `yaml:"advice"`
	Timeouts   TimeoutsConfig  `yaml:"timeouts"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	StaticDir       string        `yaml:"static_dir"`
	AllowedOrigin   string        `yaml:"allowed_origin"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig configures TLS.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// SessionConfig configures login sessions.
type SessionConfig struct {
	Store           string        `yaml:"store"`
	TTL             time.Duration `yaml:"ttl"`
	CookieName      string        `yaml:"cookie_name"`
	Secret          string        `yaml:"secret"`
	SecureCookie    bool          `yaml:"secure_cookie"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// AuthConfig configures the credential store.
type AuthConfig struct {
	Store      string          `yaml:"store"`
	UsersFile  string          `yaml:"users_file"`
	SQLitePath string          `yaml:"sqlite_path"`
	SeedUsers  []auth.SeedUser `yaml:"seed_users"`
}

// StorageConfig configures the activity log's object store.
type StorageConfig struct {
	Provider string              `yaml:"provider"`
	S3       S3StorageConfig     `yaml:"s3"`
	Badger   BadgerStorageConfig `yaml:"badger"`
}

// S3StorageConfig configures an S3 bucket.
type S3StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// BadgerStorageConfig configures a local Badger database.
type BadgerStorageConfig struct {
	Dir string `yaml:"dir"`
}

// ActivityConfig sizes the background recorder.
type ActivityConfig struct {
	QueueSize int `yaml:"queue_size"`
	Workers   int `yaml:"workers"`
}

// ExecutionConfig configures the code execution service.
type ExecutionConfig struct {
	URL     string `yaml:"url"`
	Version string `yaml:"version"`
}

// AdviceConfig configures the advice backend.
type AdviceConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	PromptFile string `yaml:"prompt_file"`
}

// TimeoutsConfig bounds outbound calls.
type TimeoutsConfig struct {
	Storage   time.Duration `yaml:"storage"`
	Execution time.Duration `yaml:"execution"`
	Advice    time.Duration `yaml:"advice"`
}

// LoadConfig loads configuration from a file.
// The path is expected to come from command line arguments, controlled by the administrator.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304 -- path is from CLI args, controlled by admin
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig expands environment references in data, decodes it and
// applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	data = []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.APIVersion != "" && cfg.APIVersion != CurrentConfigVersion {
		return nil, fmt.Errorf("unsupported config apiVersion %q; supported versions: %s",
			cfg.APIVersion, CurrentConfigVersion)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// applyDefaults applies default values to the config.
func applyDefaults(cfg *Config) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = CurrentConfigVersion
	}
	applyServerDefaults(cfg)
	applySessionDefaults(cfg)
	applyStoreDefaults(cfg)
	applyClientDefaults(cfg)
}

func applyServerDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applySessionDefaults(cfg *Config) {
	if cfg.Session.Store == "" {
		cfg.Session.Store = SessionStoreMemory
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = session.DefaultTTL
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = session.DefaultCookieName
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = 10 * time.Minute
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
}

func applyStoreDefaults(cfg *Config) {
	if cfg.Auth.Store == "" {
		cfg.Auth.Store = AuthStoreFile
	}
	if cfg.Auth.UsersFile == "" {
		cfg.Auth.UsersFile = "users.json"
	}
	if cfg.Auth.SQLitePath == "" {
		cfg.Auth.SQLitePath = "users.db"
	}
	if cfg.Storage.Provider == "" {
		cfg.Storage.Provider = StorageMemory
	}
	if cfg.Activity.QueueSize == 0 {
		cfg.Activity.QueueSize = activity.DefaultQueueSize
	}
	if cfg.Activity.Workers == 0 {
		cfg.Activity.Workers = activity.DefaultWorkers
	}
}

func applyClientDefaults(cfg *Config) {
	if cfg.Execution.URL == "" {
		cfg.Execution.URL = execution.DefaultPistonURL
	}
	if cfg.Execution.Version == "" {
		cfg.Execution.Version = execution.DefaultVersion
	}
	if cfg.Advice.Provider == "" {
		cfg.Advice.Provider = AdviceOpenAI
	}
	if cfg.Timeouts.Storage == 0 {
		cfg.Timeouts.Storage = 10 * time.Second
	}
	if cfg.Timeouts.Execution == 0 {
		cfg.Timeouts.Execution = 30 * time.Second
	}
	if cfg.Timeouts.Advice == 0 {
		cfg.Timeouts.Advice = 60 * time.Second
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStorePostgres:
		if c.Database.DSN == "" {
			errs = append(errs, "database.dsn is required for the postgres session store")
		}
	default:
		errs = append(errs, fmt.Sprintf("session.store %q is not one of memory, postgres", c.Session.Store))
	}
	if c.Session.Secret == "" {
		errs = append(errs, "session.secret is required")
	}

	if c.Auth.Store != AuthStoreFile && c.Auth.Store != AuthStoreSQLite {
		errs = append(errs, fmt.Sprintf("auth.store %q is not one of file, sqlite", c.Auth.Store))
	}

	switch c.Storage.Provider {
	case StorageMemory:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, "storage.s3.bucket is required")
		}
	case StorageBadger:
		if c.Storage.Badger.Dir == "" {
			errs = append(errs, "storage.badger.dir is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.provider %q is not one of s3, badger, memory", c.Storage.Provider))
	}

	if c.Advice.Provider != AdviceOpenAI && c.Advice.Provider != AdviceGemini {
		errs = append(errs, fmt.Sprintf("advice.provider %q is not one of openai, gemini", c.Advice.Provider))
	}
	if c.Advice.APIKey == "" {
		errs = append(errs, "advice.api_key is required")
	}

	if c.Activity.QueueSize < 1 || c.Activity.Workers < 1 {
		errs = append(errs, "activity.queue_size and activity.workers must be positive")
	}

	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		errs = append(errs, "server.tls.cert_file and server.tls.key_file are required when TLS is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

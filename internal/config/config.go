package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config is the root configuration for the tracker server.
// Values come from defaults, an optional YAML file, an optional .env file and
// the process environment, in that order of increasing precedence.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Backup  BackupConfig  `yaml:"backup"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"           env:"DEXTRACKER_HOST"`
	Port         int           `yaml:"port"           env:"PORT"`
	StaticDir    string        `yaml:"static_dir"     env:"DEXTRACKER_STATIC_DIR"`
	ReadTimeout  time.Duration `yaml:"read_timeout"   env:"DEXTRACKER_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout"  env:"DEXTRACKER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"   env:"DEXTRACKER_IDLE_TIMEOUT"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" env:"DEXTRACKER_MAX_BODY_BYTES"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig selects and configures the caught-state backend.
type StoreConfig struct {
	// Backend is "file" (single JSON document) or "sqlite".
	Backend    string `yaml:"backend"     env:"DEXTRACKER_STORE_BACKEND"`
	Path       string `yaml:"path"        env:"DEXTRACKER_STORE_PATH"`
	SQLitePath string `yaml:"sqlite_path" env:"DEXTRACKER_SQLITE_PATH"`
	// Watch reloads the state when the JSON document is edited by hand.
	// Only meaningful for the file backend.
	Watch bool `yaml:"watch" env:"DEXTRACKER_STORE_WATCH"`
}

// BackupConfig controls periodic snapshot copies of the caught state.
type BackupConfig struct {
	Enabled  bool          `yaml:"enabled"  env:"DEXTRACKER_BACKUP_ENABLED"`
	Interval time.Duration `yaml:"interval" env:"DEXTRACKER_BACKUP_INTERVAL"`
	Dir      string        `yaml:"dir"      env:"DEXTRACKER_BACKUP_DIR"`
	Keep     int           `yaml:"keep"     env:"DEXTRACKER_BACKUP_KEEP"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"  env:"DEXTRACKER_LOG_LEVEL"`
	Format string `yaml:"format" env:"DEXTRACKER_LOG_FORMAT"`
	Output string `yaml:"output" env:"DEXTRACKER_LOG_OUTPUT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"DEXTRACKER_METRICS_ENABLED"`
	Path    string `yaml:"path"    env:"DEXTRACKER_METRICS_PATH"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			StaticDir:    "static",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Store: StoreConfig{
			Backend:    BackendFile,
			Path:       "data/caught.json",
			SQLitePath: "data/caught.db",
		},
		Backup: BackupConfig{
			Interval: time.Hour,
			Dir:      "data/backups",
			Keep:     24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load builds the configuration. A missing YAML file is not an error; the
// defaults and environment are used instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv reads .env into the process environment without overriding
// variables that are already set.
func loadDotEnv() error {
	err := godotenv.Load(".env")
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading .env: %w", err)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Server.StaticDir) == "" {
		errs = append(errs, errors.New("server.static_dir is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be positive"))
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file backend"))
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite backend"))
		}
		if c.Store.Watch {
			errs = append(errs, errors.New("store.watch is only supported by the file backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of file, sqlite", c.Store.Backend))
	}

	if c.Backup.Enabled {
		if c.Backup.Interval <= 0 {
			errs = append(errs, errors.New("backup.interval must be positive"))
		}
		if c.Backup.Dir == "" {
			errs = append(errs, errors.New("backup.dir is required"))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}

	return errors.Join(errs...)
}

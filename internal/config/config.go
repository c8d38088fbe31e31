// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types, and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every application-specific variable.
//
// DATABASE_URL, DATABASE_NAME and PORT are read without prefix because the
// hosting platform injects them under those names.
//
// Nested keys use "." or "__" as separator:
//
//	VDP_SERVER.READ_TIMEOUT  -> server.read_timeout
//	VDP_REDIS__ADDRESS       -> redis.address
const EnvPrefix = "VDP_"

// Store backends understood by store.Open.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database"`
	Store         StoreConfig          `koanf:"store" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	Integration   IntegrationConfig    `koanf:"integration"`
	RateLimit     RateLimitConfig      `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`
}

// DatabaseConfig holds the document database connection parameters.
//
// URL is a PostgreSQL connection string. Name, when set, overrides the
// database named in URL.
type DatabaseConfig struct {
	URL             string `koanf:"url"`
	Name            string `koanf:"name"`
	MaxConns        int32  `koanf:"max_conns" validate:"min=1"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`
	AutoMigrate     bool   `koanf:"auto_migrate"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend    string `koanf:"backend" validate:"required,oneof=postgres sqlite memory"`
	SQLitePath string `koanf:"sqlite_path"`
}

// RedisConfig contains Redis connection details.
// An empty Address disables background jobs.
type RedisConfig struct {
	Address string `koanf:"address"`
}

// IntegrationConfig stores credentials for third-party services.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
	NotifyEmail  string `koanf:"notify_email" validate:"omitempty,email"`
	FromEmail    string `koanf:"from_email" validate:"omitempty,email"`
}

// RateLimitConfig throttles lead submissions per client IP.
type RateLimitConfig struct {
	Rate  float64 `koanf:"rate" validate:"gt=0"`
	Burst int     `koanf:"burst" validate:"min=1"`
}

// DefaultConfig returns the configuration used when no variable is set.
func DefaultConfig() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			MaxConns:        10,
			ConnMaxLifetime: 3600,
			ConnMaxIdleTime: 300,
			AutoMigrate:     true,
		},
		Store: StoreConfig{
			SQLitePath: "data/leads.db",
		},
		Integration: IntegrationConfig{
			FromEmail: "noreply@vdpulizie.it",
		},
		RateLimit: RateLimitConfig{
			Rate:  5,
			Burst: 10,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps a raw environment variable name to a koanf key.
// An empty result tells the env provider to skip the variable.
func envKey(s string) string {
	switch s {
	case "DATABASE_URL":
		return "database.url"
	case "DATABASE_NAME":
		return "database.name"
	case "PORT":
		return "server.port"
	}

	if !strings.HasPrefix(s, EnvPrefix) {
		return ""
	}

	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// LoadConfig reads the environment into a Config, applies defaults and
// validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// Prefix "" hands every variable to envKey, which keeps only ours.
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := DefaultConfig()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	if mainConfig.Store.Backend == "" {
		if mainConfig.Database.URL != "" {
			mainConfig.Store.Backend = BackendPostgres
		} else {
			mainConfig.Store.Backend = BackendMemory
		}
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if mainConfig.Store.Backend == BackendPostgres && mainConfig.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the %s store", BackendPostgres)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Service name and environment always follow the primary config.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

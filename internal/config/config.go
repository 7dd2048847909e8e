// Package config loads the server configuration.
//
// Values come from three layers, later layers winning:
//
//  1. Defaults (Default())
//  2. An optional YAML file (config.yaml, or the path in CONFIG_PATH)
//  3. Environment variables (PORT, DATABASE_URL, GENAI_API_KEY, ...)
//
// Secrets such as API keys are usually only set through the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the whole server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	SportsAPI SportsAPIConfig `yaml:"sports_api"`
	LLM       LLMConfig       `yaml:"llm"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`

	// WriteTimeout bounds a whole response, so it must cover a full agent turn.
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// LockWait is how long a message waits for a busy thread before 409.
	LockWait time.Duration `yaml:"lock_wait"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"

	// URL is a file path for sqlite and a DSN for postgres.
	URL string `yaml:"url"`
}

// RedisConfig enables the distributed thread lock when URL is set. A held
// lock is extended while its turn runs; LockTTL only bounds how long the
// lock of a crashed instance survives.
type RedisConfig struct {
	URL     string        `yaml:"url"`
	LockTTL time.Duration `yaml:"lock_ttl"`
}

type SportsAPIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // "gemini" or "openai"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			CORSOrigins:  []string{"*"},
			WriteTimeout: 5 * time.Minute,
			LockWait:     2 * time.Minute,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			URL:    "data/chatbet.db",
		},
		Redis: RedisConfig{
			LockTTL: 30 * time.Second,
		},
		SportsAPI: SportsAPIConfig{
			Timeout: 30 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.5-flash",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration. A missing file at path is not an error;
// an unreadable or malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults + environment only
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT value %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.SportsAPI.BaseURL, "QUERY_API_URL")
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "GENAI_API_KEY")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")

	if v := os.Getenv("SPORTS_API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SPORTS_API_TIMEOUT value %q: %w", v, err)
		}
		c.SportsAPI.Timeout = d
	}
	return nil
}

// Validate reports every missing or invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver))
	}
	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url (DATABASE_URL) is required"))
	}
	if c.Server.LockWait <= 0 {
		errs = append(errs, errors.New("server.lock_wait must be positive"))
	}
	if c.Redis.URL != "" && c.Redis.LockTTL < time.Second {
		errs = append(errs, errors.New("redis.lock_ttl must be at least 1s"))
	}
	if c.SportsAPI.BaseURL == "" {
		errs = append(errs, errors.New("sports_api.base_url (QUERY_API_URL) is required"))
	}
	if c.SportsAPI.Timeout <= 0 {
		errs = append(errs, errors.New("sports_api.timeout must be positive"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model (LLM_MODEL) is required"))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key (GENAI_API_KEY or LLM_API_KEY) is required"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config loads service configuration from a YAML file, a local .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when ASSISTANT_CONFIG is not set.
const DefaultPath = "config.yaml"

// Config is the root configuration for the insights service and CLI.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	NATS      NATSConfig      `yaml:"nats"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig points at the tenant datastore. Driver is "sqlite" or "mysql".
type DatabaseConfig struct {
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

// LLMConfig configures the optional chat-completion intent planner.
// The planner is disabled when APIKey is empty.
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// AuthConfig holds the HMAC secret used to verify admin JWTs.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// RedisConfig is only needed when rate limiting is enabled.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// RateLimitConfig bounds assistant requests per admin user.
type RateLimitConfig struct {
	Enabled   bool `yaml:"enabled"`
	PerMinute int  `yaml:"per_minute"`
}

// NATSConfig configures the audit event publisher. Empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// LogConfig selects the zap preset.
type LogConfig struct {
	Development bool `yaml:"development"`
}

// Default returns a configuration usable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":9090",
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			DSN:         "file:insights.db?_pragma=busy_timeout(5000)",
			AutoMigrate: true,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     8 * time.Second,
		},
		RateLimit: RateLimitConfig{
			PerMinute: 30,
		},
		NATS: NATSConfig{
			Subject: "audit.assistant",
		},
	}
}

// Load builds the configuration. A missing YAML file is not an error.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// .env is optional in development
		_ = godotenv.Load()
	}

	path := os.Getenv("ASSISTANT_CONFIG")
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")
	if p := os.Getenv("PORT"); p != "" {
		c.Server.Addr = ":" + p
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.Server.AllowedOrigins = append(c.Server.AllowedOrigins, o)
			}
		}
	}

	setString(&c.Database.Driver, "DATABASE_DRIVER")
	setString(&c.Database.DSN, "DATABASE_DSN")

	setString(&c.LLM.BaseURL, "LLM_BASE_URL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.Model, "LLM_MODEL")
	if d, err := time.ParseDuration(os.Getenv("LLM_TIMEOUT")); err == nil {
		c.LLM.Timeout = d
	}

	setString(&c.Auth.JWTSecret, "JWT_SECRET")

	// Railway style deployments expose REDIS_URL instead of REDIS_ADDRESS
	setString(&c.Redis.Addr, "REDIS_URL")
	setString(&c.Redis.Addr, "REDIS_ADDRESS")
	if v, err := strconv.ParseBool(os.Getenv("RATE_LIMIT_ENABLED")); err == nil {
		c.RateLimit.Enabled = v
	}
	if v, err := strconv.Atoi(os.Getenv("RATE_LIMIT_PER_MINUTE")); err == nil {
		c.RateLimit.PerMinute = v
	}

	setString(&c.NATS.URL, "NATS_URL")
	setString(&c.NATS.Subject, "NATS_SUBJECT")

	if v, err := strconv.ParseBool(os.Getenv("LOG_DEVELOPMENT")); err == nil {
		c.Log.Development = v
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn must be set")
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("llm.timeout must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.PerMinute <= 0 {
		return errors.New("rate_limit.per_minute must be positive when rate limiting is enabled")
	}
	return nil
}

// LLMEnabled reports whether an LLM provider key is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

// Config holds every setting read at startup.
type Config struct {
	Port            string `env:"PORT" envDefault:"8080"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL         string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	CookieSecure    bool   `env:"COOKIE_SECURE" envDefault:"true"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" envDefault:"es"`

	AuthProvider string `env:"AUTH_PROVIDER" envDefault:"supabase"`
	Supabase     Supabase
	Local        Local

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"10"`

	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Supabase holds the hosted auth and database settings.
type Supabase struct {
	URL            string `env:"SUPABASE_URL"`
	AnonKey        string `env:"SUPABASE_ANON_KEY"`
	ServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	JWTSecret      string `env:"SUPABASE_JWT_SECRET"`
	DatabaseURL    string `env:"SUPABASE_DB_URL"`
}

// Configured reports whether the public auth endpoints can be called.
func (s Supabase) Configured() bool {
	return s.URL != "" && s.AnonKey != ""
}

// AdminConfigured reports whether the admin user-creation API can be called.
func (s Supabase) AdminConfigured() bool {
	return s.URL != "" && s.ServiceRoleKey != ""
}

// Local holds settings for the SQLite-backed development provider.
type Local struct {
	DatabasePath string `env:"LOCAL_DATABASE_PATH" envDefault:"tavolo.db"`
	JWTSecret    string `env:"LOCAL_JWT_SECRET"`
	BcryptCost   int    `env:"BCRYPT_COST" envDefault:"12"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted.
// Missing hosted-auth settings are not an error: the server starts and
// reports the misconfiguration to users instead.
func (c *Config) Validate() error {
	c.AuthProvider = strings.ToLower(strings.TrimSpace(c.AuthProvider))
	c.Supabase.URL = strings.TrimRight(strings.TrimSpace(c.Supabase.URL), "/")
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	switch c.AuthProvider {
	case AuthProviderSupabase:
	case AuthProviderLocal:
		if len(c.Local.JWTSecret) < 32 {
			return errors.New("LOCAL_JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
		}
		if c.Local.BcryptCost < 4 || c.Local.BcryptCost > 14 {
			return fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.Local.BcryptCost)
		}
	default:
		return fmt.Errorf("unknown AUTH_PROVIDER %q", c.AuthProvider)
	}

	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", c.RateLimitPerMinute)
	}
	return nil
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxConns int

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string
	ValkeyDB       int

	// S3-compatible object storage for uploaded images. Uploads are disabled
	// unless endpoint and both keys are set.
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BucketPublic string
	S3PublicURL    string

	// CronSecret guards the SMS sequence trigger. Empty disables it.
	CronSecret string

	// Lifetimes
	SessionIdleTTL time.Duration
	PageCacheTTL   time.Duration
	ThemeCacheTTL  time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "landingkit"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "landingkit"),
		DBSSLMode:  envOrDefault("POSTGRES_SSLMODE", "disable"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:     os.Getenv("S3_ENDPOINT"),
		S3Region:       envOrDefault("S3_REGION", "fsn1"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3BucketPublic: envOrDefault("S3_BUCKET_PUBLIC", "landingkit-public"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		CronSecret: os.Getenv("CRON_SECRET"),
	}

	var err error
	if cfg.SessionIdleTTL, err = durationOrDefault("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PageCacheTTL, err = durationOrDefault("PAGE_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ThemeCacheTTL, err = durationOrDefault("THEME_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = intOrDefault("POSTGRES_MAX_CONNS", 20); err != nil {
		return nil, err
	}
	if v := os.Getenv("VALKEY_DB"); v != "" {
		if cfg.ValkeyDB, err = strconv.Atoi(v); err != nil || cfg.ValkeyDB < 0 || cfg.ValkeyDB > 15 {
			return nil, fmt.Errorf("VALKEY_DB must be 0-15, got %s", v)
		}
	}

	if cfg.Env == "production" {
		if err := cfg.validateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// validateProduction rejects development defaults. All problems are
// reported together.
func (c *Config) validateProduction() error {
	var errs []error
	if c.DBPassword == "changeme" {
		errs = append(errs, errors.New("POSTGRES_PASSWORD must be set in production"))
	}
	if c.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET must be set in production"))
	}
	if c.DBSSLMode == "disable" && c.DBHost != "localhost" && c.DBHost != "127.0.0.1" {
		errs = append(errs, fmt.Errorf("POSTGRES_SSLMODE=disable is only allowed for a local database, host is %s", c.DBHost))
	}
	return errors.Join(errs...)
}

// DSN returns the PostgreSQL connection URL. Credentials are escaped.
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns the server listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StorageEnabled reports whether object storage credentials are present.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationOrDefault parses a Go duration ("90s", "15m") from key.
func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

// intOrDefault parses a positive integer variable.
func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return n, nil
}

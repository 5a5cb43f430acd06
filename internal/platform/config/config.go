// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (backend client, Redis, codecs) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// minSecretLength is the shortest SESSION_SECRET accepted (256 bits).
const minSecretLength = 32

// # Configuration Schema

// Config holds all runtime configuration for the Farmgate web server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// External REST backend
	APIBaseURL     string        `env:"API_BASE_URL,required,notEmpty"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`

	// Reverse geocoding service (Nominatim compatible)
	GeocoderURL     string        `env:"GEOCODER_URL"     envDefault:"https://nominatim.openstreetmap.org"`
	GeocodeDebounce time.Duration `env:"GEOCODE_DEBOUNCE" envDefault:"500ms"`
	GeocodeCacheTTL time.Duration `env:"GEOCODE_CACHE_TTL" envDefault:"24h"`

	// Key-Value Cache (Redis)
	RedisURL          string `env:"REDIS_URL,required,notEmpty"`
	RedisPoolSize     int    `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	RedisMinIdleConns int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`

	// Session artifact signing
	SessionSecret string        `env:"SESSION_SECRET,required,notEmpty"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`

	// Data query layer
	QueryStaleTime  time.Duration `env:"QUERY_STALE_TIME"  envDefault:"5m"`
	QueryErrorTime  time.Duration `env:"QUERY_ERROR_TIME"  envDefault:"10s"`
	QueryGCTime     time.Duration `env:"QUERY_GC_TIME"     envDefault:"30m"`
	QueryMaxEntries int           `env:"QUERY_MAX_ENTRIES" envDefault:"1024"`

	// OTP resend countdown
	OTPResendCooldown time.Duration `env:"OTP_RESEND_COOLDOWN" envDefault:"30s"`

	// Static front-end bundle
	StaticDir string `env:"STATIC_DIR" envDefault:"./web/dist"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces cross-field rules the struct tags cannot express.
func (c *Config) validate() error {
	if len(c.SessionSecret) < minSecretLength {
		return fmt.Errorf("config: SESSION_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.SessionMaxAge <= 0 {
		return fmt.Errorf("config: SESSION_MAX_AGE must be positive")
	}
	if c.RedisPoolSize <= 0 {
		return fmt.Errorf("config: REDIS_POOL_SIZE must be positive")
	}
	if c.QueryErrorTime > c.QueryStaleTime {
		return fmt.Errorf("config: QUERY_ERROR_TIME must not exceed QUERY_STALE_TIME")
	}
	if c.QueryMaxEntries <= 0 {
		return fmt.Errorf("config: QUERY_MAX_ENTRIES must be positive")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma separated EXTRA_ORIGINS as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the API binary needs to start.
type Config struct {
	Addr string `env:"VCLINK_ADDR" envDefault:":8080"`

	// BrokerKey signs outcome tokens. Required.
	BrokerKey string `env:"VCLINK_BROKER_KEY,required"`

	// PGDSN enables the Postgres-backed stores; empty keeps everything
	// in memory (dev mode).
	PGDSN string `env:"VCLINK_PG_DSN"`

	// TokenMaxAge overrides the request-token freshness window. Zero keeps
	// the default of 300s.
	TokenMaxAge time.Duration `env:"VCLINK_TOKEN_MAX_AGE"`

	RateBurst  int `env:"VCLINK_RATE_BURST" envDefault:"20"`
	RatePerSec int `env:"VCLINK_RATE_PER_SEC" envDefault:"10"`

	MaxBodyBytes int64 `env:"VCLINK_MAX_BODY_BYTES" envDefault:"1048576"`

	// WSOrigins lists origin host patterns allowed to open session
	// sockets, e.g. "app.example.com,*.example.org". Empty keeps the
	// localhost dev defaults.
	WSOrigins []string `env:"VCLINK_WS_ORIGINS" envSeparator:","`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

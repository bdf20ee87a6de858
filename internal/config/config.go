package config

import "time"

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" default:"30m"`
}

// GameConfig holds the tunables the round and deposit services need.
type GameConfig struct {
	// Credits granted to a first-time player.
	WelcomeCredits int64 `env:"WELCOME_CREDITS" default:"0"`
	// Credits granted per deposit request when no payment network is
	// configured (dev/demo fallback).
	FallbackCredits int64 `env:"FALLBACK_CREDITS" default:"100"`
	// Conversion rate: sats of external value per credit.
	SatsPerCredit int64 `env:"SATS_PER_CREDIT" default:"10"`
}

// LightningConfig points at the invoice publisher. An empty BaseURL
// disables the payment network and switches deposits to fallback mode.
type LightningConfig struct {
	BaseURL  string `env:"LN_BASE_URL" default:""`
	TokenKey string `env:"LN_TOKEN_KEY" default:""`
}

// AuthConfig binds login assertions to this deployment.
type AuthConfig struct {
	// Endpoint URL the assertion's `u` tag must match.
	EndpointURL string `env:"AUTH_ENDPOINT_URL"`
}

package session

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the session expiration policy.
type Config struct {
	// TTL is the validity window of a new or renewed session.
	TTL time.Duration `env:"AUTHD_SESSION_TTL" envDefault:"168h"`

	// RenewWithin is the trailing part of TTL in which validation renews.
	RenewWithin time.Duration `env:"AUTHD_SESSION_RENEW_WITHIN" envDefault:"96h"`

	// SweepInterval enables the background sweep when > 0.
	SweepInterval time.Duration `env:"AUTHD_SESSION_SWEEP_INTERVAL" envDefault:"0s"`

	// SweepLockTTL bounds how long one replica holds the sweep lease.
	SweepLockTTL time.Duration `env:"AUTHD_SESSION_SWEEP_LOCK_TTL" envDefault:"1m"`
}

// DefaultConfig returns the 7 day / 4 day policy with the sweep disabled.
func DefaultConfig() Config {
	return Config{
		TTL:          7 * 24 * time.Hour,
		RenewWithin:  4 * 24 * time.Hour,
		SweepLockTTL: time.Minute,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (Go duration strings):
//   - AUTHD_SESSION_TTL
//   - AUTHD_SESSION_RENEW_WITHIN
//   - AUTHD_SESSION_SWEEP_INTERVAL
//   - AUTHD_SESSION_SWEEP_LOCK_TTL
//
// Returns an error wrapping ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces 0 < RenewWithin < TTL.
func (c Config) Validate() error {
	switch {
	case c.TTL <= 0:
		return fmt.Errorf("%w: ttl must be positive", ErrConfig)
	case c.RenewWithin <= 0 || c.RenewWithin >= c.TTL:
		return fmt.Errorf("%w: renew window must be within (0, ttl)", ErrConfig)
	case c.SweepInterval < 0:
		return fmt.Errorf("%w: negative sweep interval", ErrConfig)
	case c.SweepInterval > 0 && c.SweepLockTTL <= 0:
		return fmt.Errorf("%w: sweep lock ttl must be positive", ErrConfig)
	}
	return nil
}

package authapi

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls auth API behavior.
type Config struct {
	// Env selects cookie security; "production" marks cookies Secure.
	Env string `env:"AUTHD_ENV" envDefault:"development"`

	RequireEmailVerified bool          `env:"AUTHD_AUTH_REQUIRE_EMAIL_VERIFIED" envDefault:"true"`
	MaxBodyBytes         int64         `env:"AUTHD_AUTH_MAX_BODY_BYTES" envDefault:"1048576"`
	StoreTimeout         time.Duration `env:"AUTHD_AUTH_STORE_TIMEOUT" envDefault:"3s"`
}

const (
	defaultMaxBodyBytes = 1 << 20
	defaultStoreTimeout = 3 * time.Second
)

// LoadConfigFromEnv loads auth config from the environment with safe defaults.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("authapi: config: %w", err)
	}
	return cfg.withDefaults(), nil
}

// Production reports whether cookies must be Secure.
func (c Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env), "production")
}

func (c Config) withDefaults() Config {
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = defaultStoreTimeout
	}
	return c
}

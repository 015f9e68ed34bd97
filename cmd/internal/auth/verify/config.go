package verify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinTokenBytes is the smallest accepted token entropy.
const MinTokenBytes = 20

// Config controls verification tokens and the message that carries them.
type Config struct {
	TTL        time.Duration `env:"AUTHD_VERIFY_TTL" envDefault:"12h"`
	TokenBytes int           `env:"AUTHD_VERIFY_TOKEN_BYTES" envDefault:"32"`
	// LinkBase is the page that receives ?token=...
	LinkBase string `env:"AUTHD_VERIFY_LINK_BASE" envDefault:"http://localhost:8032/verify-email"`
	Subject  string `env:"AUTHD_VERIFY_SUBJECT" envDefault:"Confirm your email address"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		TTL:        12 * time.Hour,
		TokenBytes: 32,
		LinkBase:   "http://localhost:8032/verify-email",
		Subject:    "Confirm your email address",
	}
}

// LoadConfigFromEnv parses AUTHD_VERIFY_* and validates the result.
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

// Validate checks ranges and the link base.
func (c Config) Validate() error {
	if c.TTL <= 0 {
		return fmt.Errorf("%w: AUTHD_VERIFY_TTL must be > 0", ErrConfig)
	}
	if c.TokenBytes < MinTokenBytes {
		return fmt.Errorf("%w: AUTHD_VERIFY_TOKEN_BYTES must be >= %d", ErrConfig, MinTokenBytes)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("%w: AUTHD_VERIFY_SUBJECT must not be empty", ErrConfig)
	}
	u, err := url.Parse(c.LinkBase)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: AUTHD_VERIFY_LINK_BASE must be an absolute http(s) URL", ErrConfig)
	}
	return nil
}

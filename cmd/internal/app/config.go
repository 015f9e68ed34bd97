package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string `env:"AUTHD_HTTP_ADDR" envDefault:"0.0.0.0:8032"`
	LogLevel  string `env:"AUTHD_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"AUTHD_LOG_FORMAT" envDefault:"json"`
	Env       string `env:"AUTHD_ENV" envDefault:"development"`

	ReadHeaderTimeout time.Duration `env:"AUTHD_HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `env:"AUTHD_HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"AUTHD_HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"AUTHD_HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	MaxHeaderBytes    int           `env:"AUTHD_HTTP_MAX_HEADER_BYTES" envDefault:"1048576"`

	// Empty selects the in-memory stores.
	DatabaseURL string `env:"AUTHD_DATABASE_URL"`
	DBMaxConns  int32  `env:"AUTHD_DB_MAX_CONNS" envDefault:"10"`
	DBMinConns  int32  `env:"AUTHD_DB_MIN_CONNS" envDefault:"0"`
	AutoMigrate bool   `env:"AUTHD_DB_AUTO_MIGRATE" envDefault:"false"`

	// RedisURL enables the cross-instance lease for the expired-session sweep.
	RedisURL string `env:"AUTHD_REDIS_URL"`

	// If true, /readyz returns 503 unless the DB is configured and reachable.
	ReadinessRequireDB bool `env:"AUTHD_READINESS_REQUIRE_DB" envDefault:"false"`

	// If true, AUTHD_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and session
	// identifiers are HMAC-derived.
	RequireTokenHMAC bool `env:"AUTHD_REQUIRE_TOKEN_HMAC" envDefault:"false"`
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("app: config: %w", err)
	}
	if cfg.DBMinConns < 0 || cfg.DBMaxConns < 0 {
		return Config{}, fmt.Errorf("app: config: AUTHD_DB_MIN_CONNS and AUTHD_DB_MAX_CONNS must be >= 0")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("app: config: AUTHD_DB_MIN_CONNS must not exceed AUTHD_DB_MAX_CONNS")
	}
	return cfg, nil
}

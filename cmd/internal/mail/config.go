package mail

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Provider names.
const (
	ProviderNoop     = "noop"
	ProviderLog      = "log"
	ProviderPostmark = "postmark"
)

// Config selects and configures a Sender.
type Config struct {
	Provider string `env:"AUTHD_MAIL_PROVIDER" envDefault:"log"`
	From     string `env:"AUTHD_MAIL_FROM" envDefault:"no-reply@localhost.test"`
	ReplyTo  string `env:"AUTHD_MAIL_REPLY_TO"`

	// LogBody includes message bodies in the log provider output.
	LogBody bool `env:"AUTHD_MAIL_LOG_BODY" envDefault:"false"`

	PostmarkServerToken  string `env:"AUTHD_POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"AUTHD_POSTMARK_ACCOUNT_TOKEN"`
}

// LoadConfigFromEnv parses mail settings.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// New builds the Sender named by cfg.Provider.
func New(cfg Config, log *slog.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderNoop:
		return NoopSender{}, nil
	case ProviderLog, "":
		return LogSender{Log: log, IncludeBody: cfg.LogBody}, nil
	case ProviderPostmark:
		return NewPostmarkSender(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}

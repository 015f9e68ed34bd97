package mail

import (
	"context"
	"log/slog"
)

// NoopSender drops every message.
type NoopSender struct{}

// Send validates and discards msg.
func (NoopSender) Send(_ context.Context, msg Message) error { return msg.Validate() }

// LogSender logs message metadata instead of delivering it.
// The body is logged only when IncludeBody is set, because it carries tokens.
type LogSender struct {
	Log         *slog.Logger
	IncludeBody bool
}

// Send logs msg.
func (s LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	attrs := []any{"to", msg.To, "subject", msg.Subject, "tag", msg.Tag}
	if s.IncludeBody {
		attrs = append(attrs, "body", msg.HTMLBody)
	}
	log.InfoContext(ctx, "mail.send.log", attrs...)
	return nil
}

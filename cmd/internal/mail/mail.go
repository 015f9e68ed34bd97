package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig reports a sender that cannot be built.
	ErrInvalidConfig = errors.New("mail: invalid config")
	// ErrInvalidMessage reports a message missing required fields.
	ErrInvalidMessage = errors.New("mail: invalid message")
	// ErrSendFailed reports a provider-side delivery failure.
	ErrSendFailed = errors.New("mail: send failed")
)

// Message is a single transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	// Tag groups messages in provider analytics.
	Tag string
}

// Validate checks required fields.
func (m Message) Validate() error {
	switch {
	case strings.TrimSpace(m.To) == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	case strings.TrimSpace(m.Subject) == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case strings.TrimSpace(m.HTMLBody) == "":
		return fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, msg Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, msg Message) error { return f(ctx, msg) }

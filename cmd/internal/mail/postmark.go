package mail

import (
	"context"
	"errors"
	"fmt"

	"authd/cmd/identity"

	"github.com/mrz1836/postmark"
)

// PostmarkSender sends through the Postmark API.
type PostmarkSender struct {
	client  *postmark.Client
	from    string
	replyTo string
}

// NewPostmarkSender validates cfg and builds a Postmark-backed Sender.
func NewPostmarkSender(cfg Config) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: AUTHD_POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
	}
	if cfg.PostmarkAccountToken == "" {
		return nil, fmt.Errorf("%w: AUTHD_POSTMARK_ACCOUNT_TOKEN is required", ErrInvalidConfig)
	}
	if !identity.ValidEmail(cfg.From) {
		return nil, fmt.Errorf("%w: AUTHD_MAIL_FROM must be a valid email address", ErrInvalidConfig)
	}
	replyTo := cfg.ReplyTo
	if replyTo == "" {
		replyTo = cfg.From
	}
	if !identity.ValidEmail(replyTo) {
		return nil, fmt.Errorf("%w: AUTHD_MAIL_REPLY_TO must be a valid email address", ErrInvalidConfig)
	}
	return &PostmarkSender{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.From,
		replyTo: replyTo,
	}, nil
}

// Send delivers msg. Link tracking stays off: verification links carry tokens.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTMLBody,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			ErrSendFailed,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}

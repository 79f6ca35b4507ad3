// Package notification dispatches user-facing messages over a configurable
// channel. Only the mail channel is wired today; selecting any other channel
// fails at construction time so a misconfiguration surfaces on startup
// instead of on the first send.
package notification

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/lightit/patientreg/pkg/email"
)

// Channel names a delivery mechanism.
type Channel string

const (
	ChannelMail Channel = "mail"
	ChannelSMS  Channel = "sms"
)

const confirmationSubject = "Confirmation Email"

// Notifier delivers a message to a single recipient.
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
}

// New returns the Notifier for the requested channel.
func New(channel Channel, client *email.Client, log *slog.Logger) (Notifier, error) {
	switch channel {
	case ChannelMail:
		return &mailNotifier{client: client, log: log}, nil
	case ChannelSMS:
		return nil, &ErrChannelNotImplemented{Channel: channel}
	default:
		return nil, &ErrUnknownChannel{Channel: channel}
	}
}

type mailNotifier struct {
	client *email.Client
	log    *slog.Logger
}

func (n *mailNotifier) Send(ctx context.Context, recipient, message string) error {
	msg := email.Message{
		To:       recipient,
		Subject:  confirmationSubject,
		TextBody: message,
		HTMLBody: toHTML(message),
	}
	if err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail notification: %w", err)
	}
	n.log.Info("mail notification sent", "recipient", recipient)
	return nil
}

func toHTML(message string) string {
	escaped := html.EscapeString(message)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

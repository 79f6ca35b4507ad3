package email

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/lightit/patientreg/config"
)

type Client struct {
	cfg config.EmailConfig
}

func New(cfg config.EmailConfig) (*Client, error) {
	return &Client{cfg: cfg}, nil
}

// Send delivers a single message over SMTP, respecting the context deadline
// if it is sooner than the configured SMTP timeout.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled{}
	}

	msg, err := buildMessage(c.cfg.From, m)
	if err != nil {
		return err
	}

	d := c.newDialer()

	done := make(chan error, 1)
	go func() {
		done <- d.DialAndSend(msg)
	}()

	wait := smtpTimeout(c.cfg.SMTP)
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < wait {
			wait = d
		}
	}

	select {
	case err := <-done:
		if err != nil {
			return ErrSend{Provider: "gomail/smtp", Err: err}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return context.DeadlineExceeded
	}
}

func (c *Client) newDialer() *gomail.Dialer {
	d := gomail.NewDialer(c.cfg.SMTP.Host, c.cfg.SMTP.Port, c.cfg.SMTP.Username, c.cfg.SMTP.Password)

	d.SSL = c.cfg.SMTP.UseTLS
	if c.cfg.SMTP.UseTLS {
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return d
}

func smtpTimeout(cfg config.SMTPConfig) time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

func buildMessage(from string, m Message) (*gomail.Message, error) {
	msg := gomail.NewMessage()

	from = strings.TrimSpace(from)
	if from == "" {
		return nil, ErrInvalidMessage{Reason: "from is required"}
	}
	msg.SetHeader("From", from)

	to := strings.TrimSpace(m.To)
	if to == "" {
		return nil, ErrInvalidMessage{Reason: "recipient is required"}
	}
	msg.SetHeader("To", to)

	subj := strings.TrimSpace(m.Subject)
	if subj == "" {
		return nil, ErrInvalidMessage{Reason: "subject is required"}
	}
	msg.SetHeader("Subject", subj)

	hasText := strings.TrimSpace(m.TextBody) != ""
	hasHTML := strings.TrimSpace(m.HTMLBody) != ""

	switch {
	case hasText && hasHTML:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case hasHTML:
		msg.SetBody("text/html", m.HTMLBody)
	case hasText:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, ErrInvalidMessage{Reason: "either TextBody or HTMLBody is required"}
	}

	return msg, nil
}

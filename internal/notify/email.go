// Package notify sends the result of a run by e-mail.
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"github.com/nao1215/tiebasign/internal/config"
	"github.com/nao1215/tiebasign/internal/model"
	"github.com/nao1215/tiebasign/internal/report"
)

// ErrNotConfigured is returned by Notify when no SMTP host or recipient is set.
var ErrNotConfigured = errors.New("e-mail notification is not configured")

// SendFunc delivers a message. The default is (*email.Email).Send.
type SendFunc func(addr string, auth smtp.Auth, e *email.Email) error

func defaultSend(addr string, auth smtp.Auth, e *email.Email) error {
	return e.Send(addr, auth)
}

// EmailNotifier mails the plain-text report of a run.
type EmailNotifier struct {
	cfg    config.Notify
	send   SendFunc
	logger *slog.Logger
}

// Option configures an EmailNotifier.
type Option func(*EmailNotifier)

// WithSendFunc replaces the SMTP delivery, for tests.
func WithSendFunc(fn SendFunc) Option {
	return func(n *EmailNotifier) {
		n.send = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *EmailNotifier) {
		n.logger = logger
	}
}

// NewEmailNotifier creates a notifier for cfg.
func NewEmailNotifier(cfg config.Notify, opts ...Option) *EmailNotifier {
	n := &EmailNotifier{cfg: cfg, send: defaultSend}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	if n.cfg.SMTPPort == 0 {
		n.cfg.SMTPPort = config.DefaultSMTPPort
	}
	return n
}

// ShouldNotify reports whether r warrants a message under the configured
// policy.
func (n *EmailNotifier) ShouldNotify(r *model.Report) bool {
	if !n.cfg.Enabled() {
		return false
	}
	return !n.cfg.OnlyOnFailure || r.HasFailures()
}

// Notify sends the report. It does not apply the OnlyOnFailure policy; use
// ShouldNotify first.
func (n *EmailNotifier) Notify(ctx context.Context, r *model.Report) error {
	if !n.cfg.Enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var body bytes.Buffer
	if _, err := report.NewSimpleWriter(&body).WriteReport(r); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	e := email.NewEmail()
	e.From = n.cfg.From
	e.To = n.cfg.To
	e.Subject = Subject(r)
	e.Text = body.Bytes()

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.SMTPHost)
	}

	addr := net.JoinHostPort(n.cfg.SMTPHost, strconv.Itoa(n.cfg.SMTPPort))
	n.logger.Debug("sending notification", "smtp", addr, "recipients", len(e.To))
	if err := n.send(addr, auth, e); err != nil {
		return fmt.Errorf("failed to send notification via %s: %w", addr, err)
	}
	n.logger.Info("notification sent", "recipients", len(e.To))
	return nil
}

// Subject summarizes a run in one line.
func Subject(r *model.Report) string {
	if !r.Success {
		return "[tiebasign] run failed: " + r.Message
	}
	s := fmt.Sprintf("[tiebasign] %d signed, %d already signed, %d failed",
		r.Signed, r.AlreadySigned, r.Failed)
	if r.Processed() < r.Total {
		s += " (interrupted)"
	}
	return s
}

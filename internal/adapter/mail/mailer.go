// Package mail delivers the account lifecycle e-mails.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dgbcommerce-api/config"
	"dgbcommerce-api/internal/core/ports"

	"github.com/rs/zerolog"
	gomail "github.com/wneessen/go-mail"
)

// smtpTimeout bounds dialing and each SMTP command.
const smtpTimeout = 10 * time.Second

var errHeaderInjection = errors.New("mail header contains a line break")

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPMailer implements ports.Mailer over SMTP with optional PLAIN auth.
type SMTPMailer struct {
	from   string
	client sender
	now    func() time.Time
}

// NewSMTPMailer creates a mailer for cfg. Credentials are only sent when a
// username is configured.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPMailer{from: cfg.From, client: client, now: time.Now}, nil
}

// Send delivers msg on a fresh connection bounded by ctx.
func (m *SMTPMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm, err := m.message(msg)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) message(msg ports.MailMessage) (*gomail.Msg, error) {
	for _, h := range []string{m.from, msg.To, msg.Subject} {
		if strings.ContainsAny(h, "\r\n") {
			return nil, errHeaderInjection
		}
	}

	gm := gomail.NewMsg()
	if err := gm.From(m.from); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := gm.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient: %w", err)
	}
	gm.Subject(msg.Subject)
	gm.SetDateWithValue(m.now())
	gm.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	return gm, nil
}

// LogMailer implements ports.Mailer by logging instead of sending. Only the
// recipient and subject are logged; bodies carry one-time secrets.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// Send logs msg.
func (m *LogMailer) Send(_ context.Context, msg ports.MailMessage) error {
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivery disabled, message not sent")
	return nil
}

// New returns an SMTP mailer, or a LogMailer when no SMTP host is configured.
func New(cfg config.MailConfig, log zerolog.Logger) (ports.Mailer, error) {
	if cfg.Host == "" {
		return NewLogMailer(log), nil
	}
	m, err := NewSMTPMailer(cfg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Package mailer sends the application's outbound email.
//
// Delivery errors are returned to the caller as plain errors; the services
// decide whether a failure matters (for this application it never does).
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/Tomlord1122/otp-todo/internal/config"
)

// Message is a plain-text email to one or more recipients.
type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipients = errors.New("mailer: message has no recipients")

// New picks the Sender implementation named by cfg.Driver.
func New(cfg config.MailConfig, log zerolog.Logger) (Sender, error) {
	switch cfg.Driver {
	case config.MailDriverLog:
		return NewLogSender(log), nil
	case config.MailDriverSMTP, "":
		return NewSMTPSender(cfg)
	default:
		return nil, fmt.Errorf("mailer: unsupported driver %q", cfg.Driver)
	}
}

// SMTPSender delivers mail through an SMTP relay. A connection is dialled per
// message.
type SMTPSender struct {
	host string
	from string
	opts []mail.Option
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	switch {
	case cfg.UseSSL:
		opts = append(opts, mail.WithSSL())
	case cfg.UseTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	// Validate the options once so misconfiguration fails at startup.
	if _, err := mail.NewClient(cfg.Server, opts...); err != nil {
		return nil, fmt.Errorf("mailer: invalid smtp config: %w", err)
	}

	return &SMTPSender{host: cfg.Server, from: cfg.DefaultSender, opts: opts}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m, err := s.build(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host, s.opts...)
	if err != nil {
		return fmt.Errorf("mailer: create client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mailer: send %q: %w", msg.Subject, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, ErrNoRecipients
	}
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("mailer: invalid sender %q: %w", s.from, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipients %q: %w", strings.Join(msg.To, ","), err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log.With().Str("component", "mailer").Logger()}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.log.Info().
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("mail not delivered (log driver)")
	return nil
}

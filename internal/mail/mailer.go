// Package mail delivers rendered notifications over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/kilupskalvis/gitnotify/internal/core"
)

// PlainFallback is the text/plain part shown by clients that cannot render HTML.
const PlainFallback = "Better with HTML!"

// TLS policies accepted by Config.TLSPolicy.
const (
	TLSMandatory     = "mandatory"
	TLSOpportunistic = "opportunistic"
	TLSNone          = "none"
)

// Config holds the SMTP connection and envelope settings.
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	To        []string
	TLSPolicy string
	Timeout   time.Duration
}

// SMTPMailer sends each message over its own SMTP session.
type SMTPMailer struct {
	cfg    Config
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg Config, logger *slog.Logger) *SMTPMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers msg to the configured recipients.
func (m *SMTPMailer) Send(ctx context.Context, msg *core.Message) error {
	gm, err := BuildMessage(m.cfg.From, m.cfg.To, msg, m.logger)
	if err != nil {
		return err
	}

	client, err := m.client()
	if err != nil {
		return err
	}

	m.logger.Debug("sending mail", "host", m.cfg.Host, "port", m.cfg.Port, "rev", msg.Revision)
	if err := client.DialAndSendWithContext(ctx, gm); err != nil {
		return fmt.Errorf("send mail for %s: %w", msg.Revision, err)
	}
	return nil
}

func (m *SMTPMailer) client() (*gomail.Client, error) {
	policy, err := tlsPolicy(m.cfg.TLSPolicy)
	if err != nil {
		return nil, err
	}

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPolicy(policy),
	}
	if m.cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(m.cfg.Timeout))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

func tlsPolicy(name string) (gomail.TLSPolicy, error) {
	switch strings.ToLower(name) {
	case "", TLSMandatory:
		return gomail.TLSMandatory, nil
	case TLSOpportunistic:
		return gomail.TLSOpportunistic, nil
	case TLSNone:
		return gomail.NoTLS, nil
	default:
		return gomail.TLSMandatory, fmt.Errorf("unknown tls policy %q", name)
	}
}

// BuildMessage assembles the multipart/alternative mail for a notification.
// An author that is not a valid address is left out of Reply-To.
func BuildMessage(from string, to []string, msg *core.Message, logger *slog.Logger) (*gomail.Msg, error) {
	if len(to) == 0 {
		return nil, errors.New("no recipients")
	}

	gm := gomail.NewMsg()
	if err := gm.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := gm.To(to...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := gm.ReplyTo(msg.ReplyTo); err != nil && logger != nil {
			logger.Debug("skipping reply-to", "author", msg.ReplyTo, "error", err)
		}
	}

	gm.Subject(msg.Subject)
	gm.SetDate()
	gm.SetMessageID()
	gm.SetBodyString(gomail.TypeTextPlain, PlainFallback)
	gm.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)

	return gm, nil
}

// WriterMailer writes messages to w instead of sending them. Used for dry runs.
type WriterMailer struct {
	From string
	To   []string
	W    io.Writer
}

// Send writes the full RFC 5322 message to the writer.
func (w *WriterMailer) Send(_ context.Context, msg *core.Message) error {
	gm, err := BuildMessage(w.From, w.To, msg, nil)
	if err != nil {
		return err
	}
	if _, err := gm.WriteTo(w.W); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	_, err = io.WriteString(w.W, "\n")
	return err
}

// Package notify delivers interview invitations.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/kiranshivaraju/recruitflow/internal/config"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrDeliveryFailed   = errors.New("delivery failed")
)

// Notifier sends one message to one recipient and returns its message id.
// Each recipient succeeds or fails independently.
type Notifier interface {
	Send(ctx context.Context, recipient, subject, body string) (string, error)
}

// SMTPNotifier sends plain-text mail through an SMTP relay.
type SMTPNotifier struct {
	cfg     config.MailConfig
	timeout time.Duration
}

func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, timeout: 30 * time.Second}
}

var _ Notifier = (*SMTPNotifier)(nil)

func (n *SMTPNotifier) buildMessage(recipient, subject, body string) (*mail.Msg, string, error) {
	if strings.TrimSpace(recipient) == "" {
		return nil, "", fmt.Errorf("%w: empty address", ErrInvalidRecipient)
	}

	m := mail.NewMsg()
	if err := m.From(n.cfg.From); err != nil {
		return nil, "", fmt.Errorf("sender %q: %w", n.cfg.From, err)
	}
	if err := m.To(recipient); err != nil {
		return nil, "", fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, recipient, err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)

	id := fmt.Sprintf("%s@%s", uuid.NewString(), n.domain())
	m.SetMessageIDWithValue(id)
	return m, id, nil
}

func (n *SMTPNotifier) domain() string {
	if at := strings.LastIndexByte(n.cfg.From, '@'); at >= 0 && at+1 < len(n.cfg.From) {
		return strings.TrimRight(n.cfg.From[at+1:], ">")
	}
	return "recruitflow.local"
}

func (n *SMTPNotifier) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(n.timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	}
	return mail.NewClient(n.cfg.Host, opts...)
}

// Send delivers one message. Connection and relay failures are returned as
// ErrDeliveryFailed.
func (n *SMTPNotifier) Send(ctx context.Context, recipient, subject, body string) (string, error) {
	m, id, err := n.buildMessage(recipient, subject, body)
	if err != nil {
		return "", err
	}

	c, err := n.client()
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}
	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDeliveryFailed, recipient, err)
	}
	return id, nil
}

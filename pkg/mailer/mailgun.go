package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const defaultSendTimeout = 10 * time.Second

// Mailgun is the Sender behind the email worker.
type Mailgun struct {
	Domain  string
	Sender  string
	Timeout time.Duration
	client  *mg.MailgunImpl
}

// NewMailgun builds the client once; it is reused for every job.
func NewMailgun(domain, apiKey, sender string) *Mailgun {
	return &Mailgun{
		Domain:  domain,
		Sender:  sender,
		Timeout: defaultSendTimeout,
		client:  mg.NewMailgun(domain, apiKey),
	}
}

// Send delivers one message. html is optional; text is always set as the
// plain-text part.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

var _ Sender = (*Mailgun)(nil)

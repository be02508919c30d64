package notifications

import (
	"context"

	"gopkg.in/gomail.v2"

	"mqttha/internal/config"
)

// smtpTransport sends mail directly to an SMTP relay.
type smtpTransport struct {
	dialer *gomail.Dialer
	from   string
}

func newSMTPTransport(cfg config.Mail) *smtpTransport {
	return &smtpTransport{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

func (t *smtpTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return &TransportError{ExitCode: -1, Err: err}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", msg.Recipient)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	for _, file := range msg.Attachments {
		m.Attach(file)
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		return &TransportError{ExitCode: -1, Err: err}
	}
	return nil
}

// Package smtp provides an SMTP mailer for the notification collaborator.
package smtp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"voicemail-notify-service/internal/config"
	"voicemail-notify-service/internal/service/notify"
)

// Mailer implements notify.Mailer over SMTP.
type Mailer struct {
	client *mail.Client
}

// New creates an SMTP mailer from the email configuration.
func New(cfg config.EmailConfig) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp: create client: %w", err)
	}
	return &Mailer{client: client}, nil
}

// Send delivers the message and returns its message id.
func (m *Mailer) Send(ctx context.Context, out notify.OutboundMail) (string, error) {
	msg := mail.NewMsg()
	if err := msg.From(out.From); err != nil {
		return "", fmt.Errorf("smtp: sender %s: %w", out.From, err)
	}
	if err := msg.To(out.To); err != nil {
		return "", fmt.Errorf("smtp: recipient %s: %w", out.To, err)
	}
	msg.Subject(out.Subject)
	msg.SetBodyString(mail.TypeTextPlain, out.TextBody)
	msg.AddAlternativeString(mail.TypeTextHTML, out.HTMLBody)
	if len(out.Attachment) > 0 {
		if err := msg.AttachReader(out.AttachmentName, bytes.NewReader(out.Attachment)); err != nil {
			return "", fmt.Errorf("smtp: attach %s: %w", out.AttachmentName, err)
		}
	}
	msg.SetMessageID()

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp: send: %w", err)
	}
	return msg.GetMessageID(), nil
}

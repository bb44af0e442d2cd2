package mail

import (
	"context"

	"dgbcommerce-api/internal/core/domain"
	"dgbcommerce-api/internal/core/ports"
)

// Notifier implements ports.AccountNotifier on top of a Mailer.
type Notifier struct {
	mailer ports.Mailer
}

// NewNotifier creates a Notifier.
func NewNotifier(mailer ports.Mailer) *Notifier {
	return &Notifier{mailer: mailer}
}

// SendActivation mails the activation link.
func (n *Notifier) SendActivation(ctx context.Context, to domain.PublicMerchant, link string) error {
	subject, body, err := RenderActivation(to.Username, link)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, ports.MailMessage{To: to.EmailAddress, Subject: subject, HTMLBody: body})
}

// SendPasswordReset mails the password reset link.
func (n *Notifier) SendPasswordReset(ctx context.Context, to domain.PublicMerchant, link string) error {
	subject, body, err := RenderPasswordReset(to.Username, link)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, ports.MailMessage{To: to.EmailAddress, Subject: subject, HTMLBody: body})
}

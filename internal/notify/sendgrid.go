package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer is the part of *sendgrid.Client used for delivery.
type Mailer interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridDispatcher sends notifications as plain-text email.
type SendGridDispatcher struct {
	Client   Mailer
	FromName string
	FromAddr string
}

// NewSendGridDispatcher builds a dispatcher backed by the SendGrid API.
func NewSendGridDispatcher(apiKey, from string) *SendGridDispatcher {
	return &SendGridDispatcher{
		Client:   sendgrid.NewSendClient(apiKey),
		FromName: "Maintenance Tracker",
		FromAddr: from,
	}
}

func (d *SendGridDispatcher) Dispatch(ctx context.Context, n Notification) error {
	from := mail.NewEmail(d.FromName, d.FromAddr)
	to := mail.NewEmail("", n.Email)
	message := mail.NewSingleEmail(from, n.Subject, to, n.Message, "")

	response, err := d.Client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}

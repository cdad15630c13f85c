// Package mailer sends best-effort notification mail. Delivery failures are
// logged and never surface to the caller.
package mailer

import (
	"fmt"
	"log/slog"

	"podlib/internal/config"
	"podlib/internal/middleware"

	mail "github.com/wneessen/go-mail"
)

// Mailer sends welcome mail over SMTP. A nil-configured Mailer is a no-op.
type Mailer struct {
	cfg *config.Config
}

// New returns a Mailer using the given configuration.
func New(cfg *config.Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendWelcome delivers the registration welcome message in the background.
// Registration must never block or fail on mail delivery.
func (m *Mailer) SendWelcome(name, email string) {
	if m == nil || m.cfg == nil || !m.cfg.MailEnabled() {
		return
	}

	go func() {
		if err := m.send(name, email); err != nil {
			middleware.Logger.Error("welcome mail delivery failed",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (m *Mailer) send(name, email string) error {
	msg := mail.NewMsg()

	from := m.cfg.MailFrom
	if from == "" {
		from = m.cfg.SMTPUser
	}
	if err := msg.FromFormat("Podcast Library", from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}

	msg.Subject("Welcome to Podcast Library!")
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf(
		"<h2>Welcome to Podcast Library, %s!</h2>"+
			"<p>Thank you for registering. Start exploring podcasts today!</p>"+
			"<b>Happy listening!</b><br>The Podcast Library Team", name))

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.SMTPUser),
		mail.WithPassword(m.cfg.SMTPPass),
	)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	return client.DialAndSend(msg)
}

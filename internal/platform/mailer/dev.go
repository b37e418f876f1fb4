package mailer

import (
	"time"

	"github.com/quietbay/daybook/pkg/logger"
)

// DevMailer logs emails instead of sending them. Used when EMAIL_DEV_MODE
// is set or no MailerSend key is configured.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (m *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("DEV EMAIL",
		"to", toEmail,
		"subject", subject,
		"text", text,
	)
	return "dev", nil
}

func (m *DevMailer) SendConfirmationLink(toEmail, toName, date, link string, expiresAt time.Time) error {
	logger.Info("DEV EMAIL: confirmation link",
		"to", toEmail,
		"date", date,
		"link", link,
		"expires_at", expiresAt,
	)
	return nil
}

func (m *DevMailer) SendReceipt(toEmail, toName, date string) error {
	logger.Info("DEV EMAIL: receipt", "to", toEmail, "date", date)
	return nil
}

func (m *DevMailer) SendCancelled(toEmail, date string) error {
	logger.Info("DEV EMAIL: cancelled", "to", toEmail, "date", date)
	return nil
}

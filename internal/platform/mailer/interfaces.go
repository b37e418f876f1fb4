package mailer

import "time"

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendConfirmationLink(toEmail, toName, date, link string, expiresAt time.Time) error
	SendReceipt(toEmail, toName, date string) error
	SendCancelled(toEmail, date string) error
}

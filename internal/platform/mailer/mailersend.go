package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mailersend/mailersend-go"
)

type Mailer struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *Mailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", errors.New("mailer disabled (missing MAILERSEND_API_KEY or MAIL_FROM_EMAIL)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

func (m *Mailer) SendConfirmationLink(toEmail, toName, date, link string, expiresAt time.Time) error {
	subject := fmt.Sprintf("Confirm your booking for %s", date)
	text := fmt.Sprintf(
		"Your booking for %s is reserved. Confirm it before %s: %s",
		date, expiresAt.Format(time.RFC1123), link,
	)
	html := fmt.Sprintf(
		`<p>Your booking for <b>%s</b> is reserved.</p><p><a href="%s">Confirm your booking</a> before %s, or the reservation will be released.</p>`,
		date, link, expiresAt.Format(time.RFC1123),
	)
	_, err := m.Send(toEmail, toName, subject, text, html)
	return err
}

func (m *Mailer) SendReceipt(toEmail, toName, date string) error {
	subject := fmt.Sprintf("Booking confirmed for %s", date)
	text := fmt.Sprintf("Your booking for %s is confirmed. We look forward to seeing you.", date)
	html := fmt.Sprintf("<p>Your booking for <b>%s</b> is confirmed.</p><p>We look forward to seeing you.</p>", date)
	_, err := m.Send(toEmail, toName, subject, text, html)
	return err
}

func (m *Mailer) SendCancelled(toEmail, date string) error {
	subject := fmt.Sprintf("Booking cancelled for %s", date)
	text := fmt.Sprintf("Your booking for %s has been cancelled.", date)
	html := fmt.Sprintf("<p>Your booking for <b>%s</b> has been cancelled.</p>", date)
	_, err := m.Send(toEmail, "", subject, text, html)
	return err
}

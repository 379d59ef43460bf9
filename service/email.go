package service

import (
	"fmt"
	"go-contacts-api/logger"
	"net/smtp"

	"github.com/sirupsen/logrus"
)

// IEmailSender delivers transactional mail (confirmation and reset
// links). Delivery is best-effort: callers dispatch through SendAsync
// and never surface failures to the client.
type IEmailSender interface {
	Send(to, subject, body string) error
}

// SMTPEmailSender sends mail over plain SMTP with optional auth.
type SMTPEmailSender struct {
	Host     string
	Port     string
	From     string
	FromName string
	Username string
	Password string
}

func NewSMTPEmailSender(host, port, from, fromName, username, password string) *SMTPEmailSender {
	return &SMTPEmailSender{
		Host:     host,
		Port:     port,
		From:     from,
		FromName: fromName,
		Username: username,
		Password: password,
	}
}

func (s *SMTPEmailSender) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		s.FromName, s.From, to, subject, body)

	var auth smtp.Auth
	if s.Username != "" {
		auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}

	addr := s.Host + ":" + s.Port
	return smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg))
}

// SendAsync dispatches mail on a separate goroutine, fire-and-forget.
// Failures are logged and swallowed.
func SendAsync(sender IEmailSender, to, subject, body string) {
	go func() {
		if err := sender.Send(to, subject, body); err != nil {
			logger.Log.WithError(err).WithFields(logrus.Fields{
				"to":      to,
				"subject": subject,
			}).Error("Failed to send email")
		}
	}()
}

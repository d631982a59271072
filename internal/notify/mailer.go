package notify

import (
	"os"
	"strconv"

	"github.com/go-gomail/gomail"
)

// Mailer sends HTML email over SMTP. A nil *Mailer is valid and means
// mail delivery is not configured; the consumer logs events instead.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewMailerFromEnv builds a Mailer from MAIL_HOST, MAIL_PORT,
// MAIL_USERNAME, MAIL_PASSWORD and MAIL_FROM. It returns nil when
// MAIL_HOST is unset so deployments without an SMTP server still run.
func NewMailerFromEnv() *Mailer {
	host := os.Getenv("MAIL_HOST")
	if host == "" {
		return nil
	}
	port := 587
	if p := os.Getenv("MAIL_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = os.Getenv("MAIL_USERNAME")
	}
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: os.Getenv("MAIL_USERNAME"),
		Password: os.Getenv("MAIL_PASSWORD"),
		From:     from,
	}
}

// Send delivers one HTML message to the given recipients.
func (m *Mailer) Send(to []string, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return d.DialAndSend(msg)
}

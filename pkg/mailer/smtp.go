package mailer

import (
	"context"
	"crypto/tls"

	"gopkg.in/gomail.v2"
)

// SMTP sends mail through a plain SMTP relay, e.g. the institution's own server.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTP(host string, port int, username, password, from string) *SMTP {
	return &SMTP{Host: host, Port: port, Username: username, Password: password, From: from}
}

func (s *SMTP) Send(ctx context.Context, to, subject, text, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if text != "" {
		m.SetBody("text/plain", text)
		if html != "" {
			m.AddAlternative("text/html", html)
		}
	} else {
		m.SetBody("text/html", html)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	d.TLSConfig = &tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}
	return d.DialAndSend(m)
}

var _ Sender = (*SMTP)(nil)

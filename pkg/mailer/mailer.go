// Package mailer sends plain-text notification mail over SMTP. When no SMTP
// host is configured it runs in simulation mode and only logs, so local
// setups work without a mail account.
package mailer

import (
	"fmt"
	"log"
	"net"
	"net/smtp"
	"os"
)

type Mailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// FromEnv builds a Mailer from SMTP_HOST, SMTP_PORT, SMTP_USERNAME,
// SMTP_PASSWORD and SMTP_FROM. Missing SMTP_HOST enables simulation mode.
func FromEnv() *Mailer {
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USERNAME")
	}
	return &Mailer{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
	}
}

// Send delivers one message to one address. Implements budget.Notifier.
func (m *Mailer) Send(to, subject, body string) error {
	if m.Host == "" {
		log.Printf("mailer: simulation mode, would send to %s subject=%q (%d bytes)", to, subject, len(body))
		return nil
	}
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := net.JoinHostPort(m.Host, m.Port)
	if err := smtp.SendMail(addr, auth, m.From, []string{to}, message(m.From, to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	log.Printf("mailer: sent to %s subject=%q", to, subject)
	return nil
}

func message(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body + "\r\n")
}

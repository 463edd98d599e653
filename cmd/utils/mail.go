package utils

import (
	"log"
	"sync"

	"gopkg.in/gomail.v2"
)

// Mailer delivers plain-text mail.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Password string
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.User)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	d := gomail.NewDialer(m.Host, m.Port, m.User, m.Password)
	return d.DialAndSend(msg)
}

// LogMailer prints mail instead of sending it; used when no SMTP host is configured.
type LogMailer struct{}

func (LogMailer) Send(to, subject, body string) error {
	log.Printf("Mail to %s: %s\n%s", to, subject, body)
	return nil
}

type SentMail struct {
	To, Subject, Body string
}

// OutboxMailer keeps mail in memory.
type OutboxMailer struct {
	mu   sync.Mutex
	Sent []SentMail
}

func (m *OutboxMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *OutboxMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

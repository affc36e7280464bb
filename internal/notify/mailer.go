// Package notify delivers sizing reports by email over SMTP.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/technosupport/ts-sizer/internal/calc"
	"github.com/technosupport/ts-sizer/internal/report"
)

var ErrNotConfigured = errors.New("smtp credentials not configured")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BCC      string
}

type Mailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendResult mails the text report for a completed calculation. A BCC
// address, when configured, receives a copy of every report.
func (m *Mailer) SendResult(ctx context.Context, to string, result *calc.CalculationResult) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := report.Render(result)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("System Sizing Report - %s", result.ProjectName)

	recipients := []string{to}
	if m.cfg.BCC != "" {
		recipients = append(recipients, m.cfg.BCC)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	return m.send(addr, auth, m.cfg.From, recipients, []byte(msg.String()))
}

// SendTest verifies SMTP configuration end to end.
func (m *Mailer) SendTest(ctx context.Context, to string) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	msg.WriteString("Subject: System Sizer - Email Test\r\n")
	msg.WriteString("\r\n")
	msg.WriteString("SMTP delivery is configured correctly.\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	return m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg.String()))
}

// Package notify delivers run summaries by email.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"naver-trends/config"
	"naver-trends/utils"
)

// Run status values carried in the subject line.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Message is a composed notification.
type Message struct {
	Subject string
	Body    string
	Status  string
}

// Compose builds the message for a run outcome.
func Compose(text, status string) Message {
	return Message{
		Subject: fmt.Sprintf("[Naver Trends] Keyword sync %s (%s)", status, time.Now().Format("2006-01-02 15:04")),
		Body:    text,
		Status:  status,
	}
}

// Notifier sends messages over SMTP. With SMTP unconfigured it only logs.
type Notifier struct {
	cfg     *config.Config
	logger  *utils.Logger
	enabled bool
}

// NewNotifier creates a Notifier for the configured SMTP server.
func NewNotifier(cfg *config.Config, logger *utils.Logger) *Notifier {
	n := &Notifier{
		cfg:     cfg,
		logger:  logger,
		enabled: cfg.IsEmailEnabled(),
	}

	if n.enabled {
		logger.Info("[notify] Email notifications enabled (SMTP: %s:%d)", cfg.SMTPHost, cfg.SMTPPort)
	} else {
		logger.Warn("[notify] Email notifications disabled (SMTP not configured)")
	}
	return n
}

// Send delivers msg to every configured recipient.
func (n *Notifier) Send(ctx context.Context, msg Message) error {
	if !n.enabled {
		n.logger.Info("[notify] %s\n%s", msg.Subject, msg.Body)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := buildMIME(n.from(), n.cfg.NotifyTo, msg)
	addr := fmt.Sprintf("%s:%d", n.cfg.SMTPHost, n.cfg.SMTPPort)

	var auth smtp.Auth
	if n.cfg.SMTPUsername != "" && n.cfg.SMTPPassword != "" {
		auth = smtp.PlainAuth("", n.cfg.SMTPUsername, n.cfg.SMTPPassword, n.cfg.SMTPHost)
	}

	var err error
	switch n.cfg.SMTPTLS {
	case "tls":
		err = n.sendWithTLS(addr, auth, raw)
	case "starttls":
		err = n.sendWithStartTLS(addr, auth, raw)
	default:
		err = smtp.SendMail(addr, auth, n.cfg.SMTPFrom, n.cfg.NotifyTo, []byte(raw))
	}
	if err != nil {
		return fmt.Errorf("notify: send %q: %w", msg.Subject, err)
	}

	n.logger.Info("[notify] Sent %q to %v", msg.Subject, n.cfg.NotifyTo)
	return nil
}

func (n *Notifier) from() string {
	if n.cfg.SMTPFromName != "" {
		return fmt.Sprintf("%s <%s>", n.cfg.SMTPFromName, n.cfg.SMTPFrom)
	}
	return n.cfg.SMTPFrom
}

// buildMIME renders a plain-text UTF-8 message.
func buildMIME(from string, to []string, msg Message) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return b.String()
}

// sendWithTLS sends email using implicit TLS (port 465).
func (n *Notifier) sendWithTLS(addr string, auth smtp.Auth, raw string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{
		ServerName: n.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("SMTP client failed: %w", err)
	}
	defer client.Close()

	return n.deliver(client, auth, raw)
}

// sendWithStartTLS sends email using STARTTLS (port 587).
func (n *Notifier) sendWithStartTLS(addr string, auth smtp.Auth, raw string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("SMTP dial failed: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{
		ServerName: n.cfg.SMTPHost,
		MinVersion: tls.VersionTLS12,
	}); err != nil {
		return fmt.Errorf("STARTTLS failed: %w", err)
	}

	return n.deliver(client, auth, raw)
}

func (n *Notifier) deliver(client *smtp.Client, auth smtp.Auth, raw string) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL failed: %w", err)
	}
	for _, rcpt := range n.cfg.NotifyTo {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA failed: %w", err)
	}
	if _, err := w.Write([]byte(raw)); err != nil {
		return fmt.Errorf("SMTP write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("SMTP close failed: %w", err)
	}

	return client.Quit()
}

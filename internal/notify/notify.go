package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"net/url"
	"strings"
)

// Notifier delivers account emails. Callers treat delivery as best effort.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token, name string) error
}

// VerificationLink builds the absolute URL an admin follows to verify.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/api/admin/verify-email?token=" + url.QueryEscape(token)
}

// LogNotifier writes the link to the log instead of sending mail.
type LogNotifier struct {
	baseURL string
	logger  *slog.Logger
}

func NewLogNotifier(baseURL string, logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{baseURL: baseURL, logger: logger}
}

func (n *LogNotifier) SendVerificationEmail(ctx context.Context, email, token, name string) error {
	n.logger.InfoContext(ctx, "verification email",
		"email", email,
		"name", name,
		"link", VerificationLink(n.baseURL, token),
	)
	return nil
}

type SMTPConfig struct {
	Addr     string
	From     string
	Username string
	Password string
	BaseURL  string
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends plain-text mail through a relay.
type SMTPNotifier struct {
	cfg      SMTPConfig
	sendMail sendMailFunc
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *SMTPNotifier) SendVerificationEmail(ctx context.Context, email, token, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.ContainsAny(email, "\r\n") || strings.ContainsAny(name, "\r\n") {
		return errors.New("invalid recipient header")
	}

	var auth smtp.Auth
	if n.cfg.Username != "" {
		host, _, err := net.SplitHostPort(n.cfg.Addr)
		if err != nil {
			return fmt.Errorf("smtp addr: %w", err)
		}
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, host)
	}

	msg := verificationMessage(n.cfg.From, email, name, VerificationLink(n.cfg.BaseURL, token))
	if err := n.sendMail(n.cfg.Addr, auth, n.cfg.From, []string{email}, msg); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

func verificationMessage(from, to, name, link string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Verify your Thesis Archive admin account\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", name)
	b.WriteString("Confirm your email address by opening the link below:\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", link)
	b.WriteString("If you did not request an admin account you can ignore this message.\r\n")
	return []byte(b.String())
}

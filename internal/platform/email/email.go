package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"perfcycle/internal/domain/notifications"
	"perfcycle/internal/platform/config"
)

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, from, to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	cfg config.Config
}

// New returns the SMTP mailer when email is enabled, throttled to
// EmailRatePerSecond so reminder sweeps do not flood the relay.
func New(cfg config.Config) notifications.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return Throttle(&smtpMailer{cfg: cfg}, cfg.EmailRatePerSecond)
}

type throttledMailer struct {
	next    notifications.Mailer
	limiter *rate.Limiter
}

func Throttle(next notifications.Mailer, perSecond float64) notifications.Mailer {
	if perSecond <= 0 {
		return next
	}
	burst := max(int(perSecond), 1)
	return &throttledMailer{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *throttledMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttle: %w", err)
	}
	return t.next.Send(ctx, from, to, subject, body)
}

func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil
	}
	if _, err := mail.ParseAddress(to); err != nil {
		return fmt.Errorf("mail recipient %q: %w", to, err)
	}

	deadline := time.Now().Add(s.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort)))
	if err != nil {
		return fmt.Errorf("mail dial: %w", err)
	}
	defer conn.Close()
	// the smtp client has no context support; bound the whole session instead
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("mail deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return fmt.Errorf("mail handshake: %w", err)
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return fmt.Errorf("mail starttls: %w", err)
		}
	}
	if s.cfg.SMTPUser != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)); err != nil {
			return fmt.Errorf("mail auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("mail rcpt: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail data: %w", err)
	}
	msg := buildMessage(from, to, subject, body, time.Now())
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return fmt.Errorf("mail write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("mail data: %w", err)
	}
	return client.Quit()
}

func (s *smtpMailer) timeout() time.Duration {
	if s.cfg.SMTPTimeout > 0 {
		return s.cfg.SMTPTimeout
	}
	return 15 * time.Second
}

var headerSafe = strings.NewReplacer("\r", " ", "\n", " ")

// buildMessage renders a plain-text message. Header values are flattened to
// one line so user-supplied titles cannot inject headers.
func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	header := func(name, value string) {
		b.WriteString(name + ": " + headerSafe.Replace(value) + "\r\n")
	}
	header("From", from)
	header("To", to)
	header("Subject", subject)
	header("Date", at.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@perfcycle>")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="UTF-8"`)
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

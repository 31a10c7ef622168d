package email

import (
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"perfcycle/internal/platform/config"
)

type countingMailer struct {
	mu    sync.Mutex
	calls int
}

func (c *countingMailer) Send(ctx context.Context, from, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return nil
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
}

func TestThrottleHonoursContext(t *testing.T) {
	inner := &countingMailer{}
	mailer := Throttle(inner, 1)

	if err := mailer.Send(context.Background(), "a@x", "b@x", "s", "b"); err != nil {
		t.Fatalf("first send: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := mailer.Send(ctx, "a@x", "b@x", "s", "b"); err == nil {
		t.Fatal("expected throttled send to fail on short deadline")
	}
	if inner.calls != 1 {
		t.Fatalf("expected one delivered mail, got %d", inner.calls)
	}
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	at := time.Date(2026, 3, 31, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("from@x", "to@x\nCc: other@x", "Hello\r\nBcc: evil@x", "body", at))
	if strings.Contains(msg, "\r\nBcc:") || strings.Contains(msg, "\nCc:") {
		t.Fatalf("header injection not stripped: %q", msg)
	}
	if !strings.Contains(msg, "\r\nDate: Tue, 31 Mar 2026 09:00:00 +0000\r\n") {
		t.Fatalf("missing date header: %q", msg)
	}
	if !strings.Contains(msg, "\r\n\r\nbody") {
		t.Fatalf("headers not terminated by a blank line: %q", msg)
	}
	if !strings.HasSuffix(msg, "\r\nbody") {
		t.Fatalf("unexpected message body: %q", msg)
	}
}

func TestSMTPMailerRejectsBadRecipient(t *testing.T) {
	mailer := &smtpMailer{cfg: config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1}}
	if err := mailer.Send(context.Background(), "from@x", "", "s", "b"); err != nil {
		t.Fatalf("blank recipient should be skipped, got %v", err)
	}
	if err := mailer.Send(context.Background(), "from@x", "not an address", "s", "b"); err == nil {
		t.Fatal("expected malformed recipient to be rejected before dialing")
	}
}

func TestSMTPMailerGivesUpOnSilentRelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()
	defer func() {
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	mailer := &smtpMailer{cfg: config.Config{SMTPHost: "127.0.0.1", SMTPPort: addr.Port, SMTPTimeout: 100 * time.Millisecond}}

	done := make(chan error, 1)
	go func() {
		done <- mailer.Send(context.WithoutCancel(context.Background()), "from@x", "to@example.com", "s", "b")
	}()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected a relay that never greets to fail the send")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("send still blocked on a silent relay")
	}
}

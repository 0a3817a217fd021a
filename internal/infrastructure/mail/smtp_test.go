package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"
)

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "mail.local", Port: 2525, Username: "bot", Password: "pw", From: "no-reply@accounts.local"})
	m.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	if err := m.Send(context.Background(), "a@example.com", "Your new password", "Your new access password is: X"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "mail.local:2525" || gotFrom != "no-reply@accounts.local" || len(gotTo) != 1 || gotTo[0] != "a@example.com" {
		t.Fatalf("unexpected envelope: %s %s %v", gotAddr, gotFrom, gotTo)
	}
	if gotAuth == nil {
		t.Fatalf("expected PLAIN auth when a username is set")
	}
	msg := string(gotMsg)
	for _, want := range []string{"To: a@example.com\r\n", "Subject: Your new password\r\n", "\r\n\r\nYour new access password is: X\r\n"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSMTPMailer_Failures(t *testing.T) {
	m := NewSMTPMailer(Config{Host: "mail.local", Port: 25})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	if err := m.Send(context.Background(), "a@example.com", "s", "b"); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected transport error, got %v", err)
	}
	if err := m.Send(context.Background(), "a@example.com\r\nBcc: x@example.com", "s", "b"); err == nil {
		t.Fatalf("expected header injection to be rejected")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Send(ctx, "a@example.com", "s", "b"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

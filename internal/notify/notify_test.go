package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerificationLink(t *testing.T) {
	link := VerificationLink("http://localhost:8080/", "a+b/c")
	require.Equal(t, "http://localhost:8080/api/admin/verify-email?token=a%2Bb%2Fc", link)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := NewLogNotifier("http://archive.local", logger)

	require.NoError(t, notifier.SendVerificationEmail(context.Background(), "a@u.edu", "tok", "Alice"))
	require.Contains(t, buf.String(), "http://archive.local/api/admin/verify-email?token=tok")
	require.Contains(t, buf.String(), "a@u.edu")
}

func TestSMTPNotifier(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
		gotAuth smtp.Auth
	)
	notifier := NewSMTPNotifier(SMTPConfig{
		Addr:     "smtp.local:587",
		From:     "no-reply@archive.local",
		Username: "mailer",
		Password: "pw",
		BaseURL:  "https://archive.local",
	})
	notifier.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotTo, gotMsg = addr, a, to, string(msg)
		return nil
	}

	require.NoError(t, notifier.SendVerificationEmail(context.Background(), "a@u.edu", "tok", "Alice"))
	require.Equal(t, "smtp.local:587", gotAddr)
	require.NotNil(t, gotAuth)
	require.Equal(t, []string{"a@u.edu"}, gotTo)
	require.True(t, strings.HasPrefix(gotMsg, "From: no-reply@archive.local\r\n"))
	require.Contains(t, gotMsg, "Hello Alice")
	require.Contains(t, gotMsg, "https://archive.local/api/admin/verify-email?token=tok")
}

func TestSMTPNotifierErrors(t *testing.T) {
	notifier := NewSMTPNotifier(SMTPConfig{Addr: "smtp.local:25", From: "x@y"})
	relayErr := errors.New("relay down")
	notifier.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	err := notifier.SendVerificationEmail(context.Background(), "a@u.edu", "tok", "Alice")
	require.ErrorIs(t, err, relayErr)

	err = notifier.SendVerificationEmail(context.Background(), "a@u.edu\r\nBcc: x@y", "tok", "Alice")
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, notifier.SendVerificationEmail(ctx, "a@u.edu", "tok", "Alice"), context.Canceled)
}

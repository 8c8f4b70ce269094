package mail

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDisabledReportsNotConfigured(t *testing.T) {
	err := Disabled{}.SendSummary(context.Background(), "CA1", "body")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestSubject(t *testing.T) {
	require.Equal(t, "Call summary for CA123", Subject("CA123"))
}

func TestMessageFormat(t *testing.T) {
	msg := string(message("relay@example.com", "owner@example.com", "CA123",
		"Caller requested callback re: invoice."))

	headerEnd := strings.Index(msg, "\r\n\r\n")
	require.Positive(t, headerEnd, "headers and body must be separated by a blank line")

	headers := msg[:headerEnd]
	require.Contains(t, headers, "From: relay@example.com")
	require.Contains(t, headers, "To: owner@example.com")
	require.Contains(t, headers, "Subject: Call summary for CA123")
	require.Contains(t, headers, `Content-Type: text/plain; charset="utf-8"`)

	body := msg[headerEnd+4:]
	require.Equal(t, "Caller requested callback re: invoice.\r\n", body)
}

func TestSendFailsFastOnUnreachableRelay(t *testing.T) {
	// Port 1 is never listening; the dial must fail within the timeout and
	// come back as an error rather than a hang.
	n := NewSMTPNotifier("127.0.0.1", 1, "s@example.com", "pw", "r@example.com", 500*time.Millisecond)
	err := n.SendSummary(context.Background(), "CA1", "body")
	require.Error(t, err)
	require.Contains(t, err.Error(), "smtp dial")
}

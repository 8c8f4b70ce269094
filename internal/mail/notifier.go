// Package mail delivers post-call summary emails over authenticated
// STARTTLS SMTP. Delivery failures are reported to the caller for logging
// only; the phone call is already over, so nothing is retried.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/voiceline/callrelay/internal/metrics"
)

// ErrNotConfigured is reported by the disabled notifier.
var ErrNotConfigured = errors.New("mail notifier not configured")

// Notifier sends one summary message per call termination.
type Notifier interface {
	SendSummary(ctx context.Context, callID, body string) error
}

// Disabled is the notifier used when sender, credential, or recipient is
// missing. Every send is a deliberate no-op that reports non-success.
type Disabled struct{}

func (Disabled) SendSummary(context.Context, string, string) error {
	return ErrNotConfigured
}

// SMTPNotifier submits mail to a fixed outbound relay on the submission port.
type SMTPNotifier struct {
	host      string
	port      int
	sender    string
	password  string
	recipient string
	timeout   time.Duration
}

// NewSMTPNotifier creates a notifier for the given relay and account.
func NewSMTPNotifier(host string, port int, sender, password, recipient string, timeout time.Duration) *SMTPNotifier {
	return &SMTPNotifier{
		host:      host,
		port:      port,
		sender:    sender,
		password:  password,
		recipient: recipient,
		timeout:   timeout,
	}
}

// SendSummary delivers one plain-text summary message for callID.
func (n *SMTPNotifier) SendSummary(ctx context.Context, callID, body string) error {
	start := time.Now()
	err := n.send(ctx, message(n.sender, n.recipient, callID, body))
	metrics.StageDuration.WithLabelValues("mail").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Errors.WithLabelValues("mail", "smtp").Inc()
		return err
	}
	metrics.SummariesSent.Inc()
	return nil
}

func (n *SMTPNotifier) send(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	d := net.Dialer{Timeout: n.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	// One deadline for the whole SMTP exchange.
	conn.SetDeadline(time.Now().Add(n.timeout))

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err = client.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
		return fmt.Errorf("smtp starttls: %w", err)
	}
	auth := smtp.PlainAuth("", n.sender, n.password, n.host)
	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err = client.Mail(n.sender); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err = client.Rcpt(n.recipient); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", err)
	}
	return client.Quit()
}

// message renders the full RFC 5322 message with the fixed subject template.
func message(sender, recipient, callID, body string) []byte {
	headers := "From: " + sender + "\r\n" +
		"To: " + recipient + "\r\n" +
		"Subject: " + Subject(callID) + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n"
	return []byte(headers + body + "\r\n")
}

// Subject returns the fixed subject template for callID.
func Subject(callID string) string {
	return "Call summary for " + callID
}

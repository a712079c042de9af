package mailer

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"
)

// ErrMissingConfig is returned when sender, password, or recipient is absent.
// Delivery is refused before any connection is opened.
var ErrMissingConfig = errors.New("mail sender, password, and recipient must all be set")

// submissionHosts maps sender address domains to mail submission hosts.
var submissionHosts = map[string]string{
	"qq.com":      "smtp.qq.com",
	"foxmail.com": "smtp.qq.com",
	"gmail.com":   "smtp.gmail.com",
}

// defaultSubmissionHost is used for any sender domain not in the table.
const defaultSubmissionHost = "smtp.gmail.com"

const (
	submissionPort = 465
	dialTimeout    = 10 * time.Second
)

// sendFunc performs the network submission step.
type sendFunc func(host string, auth smtp.Auth, from string, to []string, msg []byte) error

// Mailer submits briefing messages over an encrypted SMTP connection.
type Mailer struct {
	sender    string
	password  string
	recipient string
	send      sendFunc
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithSendFunc replaces the network submission step (for testing).
func WithSendFunc(fn func(host string, auth smtp.Auth, from string, to []string, msg []byte) error) Option {
	return func(m *Mailer) {
		m.send = fn
	}
}

// NewMailer creates a Mailer for a single sender/recipient pair.
func NewMailer(sender, password, recipient string, opts ...Option) *Mailer {
	m := &Mailer{
		sender:    sender,
		password:  password,
		recipient: recipient,
		send:      sendSMTPS,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Deliver submits one message. When htmlBody is non-empty the message is a
// multipart/alternative with the plain part first, otherwise text/plain only.
// No retry: any connect, auth, or send failure is returned as-is.
func (m *Mailer) Deliver(subject, plainBody, htmlBody string) error {
	if m.sender == "" || m.password == "" || m.recipient == "" {
		return ErrMissingConfig
	}

	host := SubmissionHost(m.sender)
	msg := buildMessage(subject, m.sender, m.recipient, plainBody, htmlBody)
	auth := smtp.PlainAuth("", m.sender, m.password, host)

	if err := m.send(host, auth, m.sender, []string{m.recipient}, msg); err != nil {
		return fmt.Errorf("submit mail via %s: %w", host, err)
	}
	return nil
}

// SubmissionHost returns the submission host for a sender address, falling
// back to defaultSubmissionHost for unknown domains.
func SubmissionHost(sender string) string {
	at := strings.LastIndex(sender, "@")
	if at < 0 {
		return defaultSubmissionHost
	}
	domain := strings.ToLower(sender[at+1:])
	if host, ok := submissionHosts[domain]; ok {
		return host
	}
	return defaultSubmissionHost
}

func buildMessage(subject, from, to, plainBody, htmlBody string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		buf.WriteString(plainBody)
		return buf.Bytes()
	}

	mw := multipart.NewWriter(&buf)
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mw.Boundary())

	part, _ := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=UTF-8"},
	})
	part.Write([]byte(plainBody))

	part, _ = mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/html; charset=UTF-8"},
	})
	part.Write([]byte(htmlBody))

	mw.Close()
	return buf.Bytes()
}

// sendSMTPS opens one implicit-TLS connection, authenticates once, and sends
// one message. The connection is always closed before returning.
func sendSMTPS(host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", host, submissionPort)

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt to %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

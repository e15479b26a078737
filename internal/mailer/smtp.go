package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrDisabled is returned by the disabled transport.
var ErrDisabled = errors.New("mail transport disabled")

const implicitTLSPort = 465

// SMTPTransport sends plain-text mail through an SMTP server. Port 465 uses
// implicit TLS; other ports upgrade with STARTTLS when the server offers it.
type SMTPTransport struct {
	host        string
	port        int
	from        string
	password    string
	dialTimeout time.Duration
	tlsConfig   *tls.Config
}

func NewSMTPTransport(host string, port int, from, password string) *SMTPTransport {
	return &SMTPTransport{
		host:        host,
		port:        port,
		from:        from,
		password:    password,
		dialTimeout: 15 * time.Second,
		tlsConfig:   &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
	}
}

// Send delivers one message to recipient. The context bounds the whole SMTP
// conversation.
func (t *SMTPTransport) Send(ctx context.Context, recipient, subject, body string) error {
	msg, err := BuildMessage(t.from, recipient, subject, body, time.Now())
	if err != nil {
		return err
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", t.host, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, t.host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if t.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(t.tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if t.password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", t.from, t.password, t.host)); err != nil {
				return fmt.Errorf("smtp auth: %w", err)
			}
		}
	}

	if err := client.Mail(t.from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	if err := client.Rcpt(recipient); err != nil {
		return fmt.Errorf("smtp RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(t.host, strconv.Itoa(t.port))
	dialer := &net.Dialer{Timeout: t.dialTimeout}

	if t.port == implicitTLSPort {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: t.tlsConfig}
		return tlsDialer.DialContext(ctx, "tcp", addr)
	}
	return dialer.DialContext(ctx, "tcp", addr)
}

// BuildMessage renders an RFC 5322 plain-text message. The body is
// quoted-printable encoded, so any text is safe to send.
func BuildMessage(from, to, subject, body string, date time.Time) ([]byte, error) {
	for _, addr := range []string{from, to} {
		if addr == "" || strings.ContainsAny(addr, "\r\n") {
			return nil, fmt.Errorf("invalid address %q", addr)
		}
	}

	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}

	var buf bytes.Buffer
	header := func(key, value string) {
		buf.WriteString(key + ": " + value + "\r\n")
	}
	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\n", "\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(normalized)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("\r\n")

	return buf.Bytes(), nil
}

// DisabledTransport stands in when no SMTP server is configured. It logs the
// notification and fails, so the message stays marked as not emailed.
type DisabledTransport struct {
	log *logrus.Logger
}

func NewDisabledTransport(log *logrus.Logger) *DisabledTransport {
	return &DisabledTransport{log: log}
}

func (t *DisabledTransport) Send(ctx context.Context, recipient, subject, body string) error {
	t.log.WithFields(logrus.Fields{
		"recipient": recipient,
		"subject":   subject,
	}).Warn("Mail disabled, notification not sent")
	return ErrDisabled
}

package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.Notifier = (*SMTP)(nil)

const implicitTLSPort = 465

type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error

// SMTP delivers plain text mail through an authenticated SMTP relay.
// Port 465 uses implicit TLS, any other port upgrades with STARTTLS when offered.
type SMTP struct {
	host string
	addr string
	from string
	auth smtp.Auth
	send sendFunc
}

// New returns an SMTP notifier when cfg is complete, otherwise a Log notifier.
func New(cfg config.SMTP, logger *logger.Logger) model.Notifier {
	if !cfg.Enabled() {
		logger.Warn("SMTP not configured, outgoing mail will be written to the log")
		return NewLog(logger)
	}
	return NewSMTP(cfg)
}

func NewSMTP(cfg config.SMTP) *SMTP {
	s := &SMTP{
		host: cfg.Host,
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from: cfg.Sender(),
		auth: smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host),
	}
	if cfg.Port == implicitTLSPort {
		s.send = s.sendImplicitTLS
	} else {
		s.send = s.sendStartTLS
	}
	return s
}

// Send delivers one message to a single recipient.
func (s *SMTP) Send(ctx context.Context, to, subject, body string) error {
	msg := buildMessage(s.from, to, subject, body, time.Now())
	if err := s.send(ctx, s.addr, s.auth, s.from, to, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}

func (s *SMTP) sendStartTLS(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	return transmit(c, auth, from, to, msg)
}

func (s *SMTP) sendImplicitTLS(ctx context.Context, addr string, auth smtp.Auth, from, to string, msg []byte) error {
	d := tls.Dialer{Config: &tls.Config{ServerName: s.host}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	return transmit(c, auth, from, to, msg)
}

func transmit(c *smtp.Client, auth smtp.Auth, from, to string, msg []byte) error {
	if err := c.Auth(auth); err != nil {
		return err
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write(msg); err != nil {
		return err
	}
	if err := wc.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func buildMessage(from, to, subject, body string, date time.Time) []byte {
	var sb strings.Builder
	sb.WriteString("From: " + from + "\r\n")
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Date: " + date.Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	sb.WriteString("\r\n")
	return []byte(sb.String())
}

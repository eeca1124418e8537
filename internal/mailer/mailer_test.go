package mailer

import (
	"bytes"
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/testutil"
)

func TestNew_FallsBackToLog(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.SMTP
	}{
		{name: "empty", cfg: config.SMTP{}},
		{name: "missing password", cfg: config.SMTP{Host: "smtp.example.com", User: "u"}},
		{name: "missing host", cfg: config.SMTP{User: "u", Pass: "p"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := New(tt.cfg, testutil.MakeNoopLogger())
			_, ok := n.(*Log)
			assert.True(t, ok)
		})
	}
}

func TestNew_SMTP(t *testing.T) {
	n := New(config.SMTP{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p"}, testutil.MakeNoopLogger())

	s, ok := n.(*SMTP)
	require.True(t, ok)
	assert.Equal(t, "smtp.example.com:587", s.addr)
	assert.Equal(t, "u", s.from)
}

func TestSMTP_Send(t *testing.T) {
	s := NewSMTP(config.SMTP{Host: "smtp.example.com", Port: 587, User: "u", Pass: "p", From: "noreply@example.com"})

	var gotAddr, gotFrom, gotTo string
	var gotMsg []byte
	s.send = func(_ context.Context, addr string, _ smtp.Auth, from, to string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := s.Send(context.Background(), "user@example.com", "Your OTP for V-Verify", "Your OTP code is 123456.")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, "user@example.com", gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your OTP for V-Verify\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nYour OTP code is 123456.\r\n")
}

func TestSMTP_Send_Error(t *testing.T) {
	s := NewSMTP(config.SMTP{Host: "smtp.example.com", Port: 465, User: "u", Pass: "p"})
	s.send = func(context.Context, string, smtp.Auth, string, string, []byte) error {
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), "user@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	msg := string(buildMessage("a@example.com", "b@example.com", "Hi", "line1\nline2", date))

	headers, body, ok := strings.Cut(msg, "\r\n\r\n")
	require.True(t, ok)
	assert.Contains(t, headers, "From: a@example.com")
	assert.Contains(t, headers, "To: b@example.com")
	assert.Contains(t, headers, "Content-Type: text/plain; charset=UTF-8")
	assert.Equal(t, "line1\r\nline2\r\n", body)
}

func TestLog_Send(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(logger.NewWithWriter(&buf, 0))

	require.NoError(t, l.Send(context.Background(), "user@example.com", "Subject", "Your OTP code is 000042."))
	assert.Contains(t, buf.String(), "user@example.com")
	assert.Contains(t, buf.String(), "000042")
}

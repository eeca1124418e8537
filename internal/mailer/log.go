package mailer

import (
	"context"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.Notifier = (*Log)(nil)

// Log is the development notifier. It prints mail to the log instead of sending it.
type Log struct {
	logger *logger.Logger
}

func NewLog(logger *logger.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(_ context.Context, to, subject, body string) error {
	l.logger.Info("Mailer: outgoing mail",
		"to", to,
		"subject", subject,
		"body", body)
	return nil
}

package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/vverify-server/internal/model"
)

type TokenManager struct {
	mock.Mock
}

func (m *TokenManager) GenerateToken(identity model.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseToken(token string) (model.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(model.Identity), args.Error(1)
}

type PasswordHasher struct {
	mock.Mock
}

func (m *PasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *PasswordHasher) Verify(password, digest string) bool {
	args := m.Called(password, digest)
	return args.Bool(0)
}

type OTPGenerator struct {
	mock.Mock
}

func (m *OTPGenerator) Generate() (model.PendingOTP, error) {
	args := m.Called()
	return args.Get(0).(model.PendingOTP), args.Error(1)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

type Storage struct {
	mock.Mock
}

func (m *Storage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, key, reader, size, contentType)
	return args.Error(0)
}

func (m *Storage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

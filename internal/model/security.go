package model

import "context"

// PasswordHasher produces and checks one-way salted password digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// OTPGenerator issues fresh passcodes with their expiry attached.
type OTPGenerator interface {
	Generate() (PendingOTP, error)
}

// Notifier delivers a message to an email address.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OTPDuration is how long an issued passcode stays valid.
const OTPDuration = 10 * time.Minute

// Role is an account authorization level.
type Role string

const (
	// RoleStandard is the default role of every account.
	RoleStandard Role = "user"
	// RoleAdmin is granted to the configured administrator on verification.
	RoleAdmin Role = "admin"
)

// AccountStore defines persistence operations for accounts.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (Account, error)
	Create(ctx context.Context, account Account) (Account, error)
	Update(ctx context.Context, account Account) (Account, error)
	List(ctx context.Context) ([]Account, error)
}

// PendingOTP is an issued passcode that was not consumed or superseded yet.
// Code and expiry are always replaced together.
type PendingOTP struct {
	Code      string
	ExpiresAt time.Time
}

// Expired reports whether the passcode expired before now.
func (o PendingOTP) Expired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

// Account represents a stored identity with its credentials and verification state.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Verified     bool
	OTP          *PendingOTP
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether a password was ever set for the account.
func (a Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// IsAdmin reports whether the account currently holds the admin role.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// ProfileUpdate lists owner-mutable fields. Nil fields are left untouched,
// an empty string overwrites.
type ProfileUpdate struct {
	Name  *string
	Phone *string
}

package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dtroode/vverify-server/internal/model"
)

func TestNewAccountRepository(t *testing.T) {
	db := &Connection{}
	repo := NewAccountRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestNewSubmissionRepository(t *testing.T) {
	db := &Connection{}
	repo := NewSubmissionRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestAccountRow_ToModel(t *testing.T) {
	hash := "digest"
	code := "012345"
	expires := time.Date(2024, 1, 1, 0, 10, 0, 0, time.UTC)

	tests := []struct {
		name string
		row  accountRow
		want func(t *testing.T, a model.Account)
	}{
		{
			name: "placeholder without password or otp",
			row:  accountRow{ID: uuid.New(), Email: "a@b.c", Role: "user"},
			want: func(t *testing.T, a model.Account) {
				assert.False(t, a.HasPassword())
				assert.Nil(t, a.OTP)
				assert.Equal(t, model.RoleStandard, a.Role)
			},
		},
		{
			name: "pending otp",
			row:  accountRow{ID: uuid.New(), PasswordHash: &hash, OTPCode: &code, OTPExpiresAt: &expires, Role: "admin"},
			want: func(t *testing.T, a model.Account) {
				assert.Equal(t, "digest", a.PasswordHash)
				if assert.NotNil(t, a.OTP) {
					assert.Equal(t, "012345", a.OTP.Code)
					assert.Equal(t, expires, a.OTP.ExpiresAt)
				}
				assert.True(t, a.IsAdmin())
			},
		},
		{
			name: "half written otp is ignored",
			row:  accountRow{ID: uuid.New(), OTPCode: &code},
			want: func(t *testing.T, a model.Account) {
				assert.Nil(t, a.OTP)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.want(t, tt.row.toModel())
		})
	}
}

func TestAccountArgs(t *testing.T) {
	passwordHash, otpCode, otpExpiresAt := accountArgs(model.Account{})
	assert.Nil(t, passwordHash)
	assert.Nil(t, otpCode)
	assert.Nil(t, otpExpiresAt)

	expires := time.Now()
	passwordHash, otpCode, otpExpiresAt = accountArgs(model.Account{
		PasswordHash: "digest",
		OTP:          &model.PendingOTP{Code: "000001", ExpiresAt: expires},
	})
	assert.Equal(t, "digest", *passwordHash)
	assert.Equal(t, "000001", *otpCode)
	assert.Equal(t, expires, *otpExpiresAt)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

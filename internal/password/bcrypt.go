package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.PasswordHasher = (*Bcrypt)(nil)

var (
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrTooLong       = errors.New("password is too long")
)

// Bcrypt hashes passwords with a per-hash random salt.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a hasher with the given cost. Out of range costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(h), nil
}

// Verify reports whether password matches digest. A malformed digest never matches.
func (b *Bcrypt) Verify(password, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dtroode/vverify-server/internal/model"
)

var _ model.OTPGenerator = (*Generator)(nil)

// Length is the number of digits in a passcode.
const Length = 6

var upperBound = big.NewInt(1_000_000)

// Generator issues zero-padded numeric passcodes.
type Generator struct {
	random io.Reader
	now    func() time.Time
	ttl    time.Duration
}

type Option func(*Generator)

// WithClock overrides the time source used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRandom overrides the randomness source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		random: rand.Reader,
		now:    time.Now,
		ttl:    model.OTPDuration,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a passcode in [000000, 999999] valid for model.OTPDuration.
func (g *Generator) Generate() (model.PendingOTP, error) {
	n, err := rand.Int(g.random, upperBound)
	if err != nil {
		return model.PendingOTP{}, fmt.Errorf("failed to generate otp: %w", err)
	}

	return model.PendingOTP{
		Code:      fmt.Sprintf("%0*d", Length, n.Int64()),
		ExpiresAt: g.now().Add(g.ttl),
	}, nil
}

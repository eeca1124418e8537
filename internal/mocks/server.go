package mocks

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/mock"
)

type SecurityLayer struct {
	mock.Mock
}

// NewSecurityLayer creates a SecurityLayer mock whose expectations are asserted on cleanup.
func NewSecurityLayer(t *testing.T) *SecurityLayer {
	m := &SecurityLayer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *SecurityLayer) Listen(protocol, addr string) (net.Listener, error) {
	args := m.Called(protocol, addr)
	ln, _ := args.Get(0).(net.Listener)
	return ln, args.Error(1)
}

type Pinger struct {
	mock.Mock
}

func (m *Pinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

package model

import (
	"context"
	"net"
)

// SecurityLayer opens the listener a Server accepts on. Implementations decide between TLS and plain TCP.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a listener-backed endpoint (HTTP API or gRPC ops) started and stopped by main.
// Start blocks until the server stops; Stop honours the deadline carried by ctx.
type Server interface {
	Address() string
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
}

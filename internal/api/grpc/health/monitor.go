package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/model"
)

const (
	pingTimeout     = 2 * time.Second
	defaultInterval = 15 * time.Second
)

// Monitor keeps the gRPC health status in step with the backing store.
type Monitor struct {
	server   *health.Server
	pinger   model.Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewMonitor creates a Monitor. The status is NOT_SERVING until the first successful ping.
// A non-positive interval falls back to 15s.
func NewMonitor(pinger model.Pinger, interval time.Duration, logger *logger.Logger) *Monitor {
	if interval <= 0 {
		logger.Warn("Health monitor: invalid ping interval, using default",
			"interval", interval,
			"default", defaultInterval)
		interval = defaultInterval
	}

	s := health.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &Monitor{
		server:   s,
		pinger:   pinger,
		interval: interval,
		logger:   logger,
	}
}

// Server returns the health service to register on a gRPC server.
func (m *Monitor) Server() healthpb.HealthServer {
	return m.server
}

// Run pings the store every interval until ctx is cancelled, then marks the service as shutting down.
func (m *Monitor) Run(ctx context.Context) {
	m.Check(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Check pings the store once and updates the serving status.
func (m *Monitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	next := healthpb.HealthCheckResponse_SERVING
	if err := m.pinger.Ping(ctx); err != nil {
		m.logger.Warn("Health monitor: store ping failed",
			"error", err.Error())
		next = healthpb.HealthCheckResponse_NOT_SERVING
	}

	m.server.SetServingStatus("", next)
	return next
}

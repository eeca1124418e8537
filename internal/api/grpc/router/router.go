package router

import (
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/dtroode/vverify-server/internal/api/grpc/middleware"
	"github.com/dtroode/vverify-server/internal/logger"
)

// Router builds the ops gRPC server.
type Router struct {
	health healthpb.HealthServer
	logger *logger.Logger
}

// New creates new gRPC Router instance serving the given health service.
func New(health healthpb.HealthServer, logger *logger.Logger) *Router {
	return &Router{health: health, logger: logger}
}

// Register returns a gRPC server with logging and panic recovery interceptors,
// the health service and server reflection.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)

	recoveryOpt := recovery.WithRecoveryHandler(func(p any) error {
		r.logger.Error("gRPC: recovered from panic",
			"panic", p)
		return status.Error(codes.Internal, "internal error")
	})

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			recovery.UnaryServerInterceptor(recoveryOpt),
		),
		grpc.ChainStreamInterceptor(
			recovery.StreamServerInterceptor(recoveryOpt),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}

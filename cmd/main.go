package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dtroode/vverify-server/internal/api/grpc/health"
	grpcRouter "github.com/dtroode/vverify-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/vverify-server/internal/api/grpc/server"
	httpctx "github.com/dtroode/vverify-server/internal/api/http/context"
	httpRouter "github.com/dtroode/vverify-server/internal/api/http/router"
	httpServer "github.com/dtroode/vverify-server/internal/api/http/server"
	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/mailer"
	"github.com/dtroode/vverify-server/internal/metrics"
	"github.com/dtroode/vverify-server/internal/model"
	"github.com/dtroode/vverify-server/internal/otp"
	"github.com/dtroode/vverify-server/internal/password"
	"github.com/dtroode/vverify-server/internal/repository/memory"
	"github.com/dtroode/vverify-server/internal/repository/postgres"
	"github.com/dtroode/vverify-server/internal/server"
	"github.com/dtroode/vverify-server/internal/service"
	storage "github.com/dtroode/vverify-server/internal/storage/minio"
	"github.com/dtroode/vverify-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

type stores struct {
	accounts    model.AccountStore
	submissions model.SubmissionStore
	pinger      model.Pinger
	close       func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if cfg.InsecureSecret() {
		logger.Warn("JWT_SECRET is not set, using the insecure development default")
	}
	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL is not set, no account will be promoted to admin")
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer st.close()

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.Expires)
	notifier := mailer.New(cfg.SMTP, logger)

	authService := service.NewAuth(
		cfg,
		st.accounts,
		password.NewBcrypt(bcrypt.DefaultCost),
		otp.NewGenerator(),
		tokenManager,
		notifier,
		logger,
		service.WithRecorder(m),
	)
	guard := service.NewGuard(tokenManager, st.accounts, logger)

	var exportStorage model.Storage
	if cfg.Storage.Enabled() {
		storageClient, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		exportStorage = storageClient
	} else {
		logger.Info("MINIO_ENDPOINT is not set, exports are returned inline")
	}
	submissionService := service.NewSubmission(st.submissions, st.accounts, exportStorage, logger)

	app := httpRouter.New(
		cfg.HTTP,
		authService,
		submissionService,
		guard,
		st.pinger,
		httpctx.NewManager(),
		m,
		reg,
		logger,
	).Register()

	opsLogger := logger.With("listener", "grpc")
	monitor := health.NewMonitor(st.pinger, cfg.GRPC.PingInterval, opsLogger)
	go monitor.Run(ctx)

	servers := []model.Server{
		httpServer.NewHTTPServer(app, cfg.HTTP.Addr),
		grpcServer.NewGRPCServer(grpcRouter.New(monitor.Server(), opsLogger).Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
	}
	sl := server.NewSecurityLayer(cfg.HTTP)

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

// openStores connects to Postgres, or falls back to process memory when no DSN is configured.
func openStores(ctx context.Context, cfg *config.Config, logger *logger.Logger) (stores, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("DATABASE_DSN is not set, using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		return stores{
			accounts:    mem.Accounts(),
			submissions: mem.Submissions(),
			pinger:      mem,
			close:       func() {},
		}, nil
	}

	db, err := postgres.NewConection(ctx, cfg.Database)
	if err != nil {
		return stores{}, err
	}
	return stores{
		accounts:    postgres.NewAccountRepository(db),
		submissions: postgres.NewSubmissionRepository(db),
		pinger:      db,
		close:       func() { _ = db.Close() },
	}, nil
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

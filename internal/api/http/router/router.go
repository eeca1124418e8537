package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/vverify-server/internal/api/http/handler"
	"github.com/dtroode/vverify-server/internal/api/http/middleware"
	"github.com/dtroode/vverify-server/internal/config"
	"github.com/dtroode/vverify-server/internal/logger"
	"github.com/dtroode/vverify-server/internal/metrics"
	"github.com/dtroode/vverify-server/internal/model"
)

// Router wires HTTP handlers and middleware for the V-Verify API.
type Router struct {
	cfg               config.HTTP
	authService       handler.AuthService
	submissionService handler.SubmissionService
	guard             middleware.Guard
	pinger            model.Pinger
	contextManager    model.ContextManager
	metrics           *metrics.Metrics
	gatherer          prometheus.Gatherer
	logger            *logger.Logger
}

// New creates new HTTP Router instance.
//
// gatherer backs the /metrics endpoint and should be the registry metrics were registered with.
func New(
	cfg config.HTTP,
	authService handler.AuthService,
	submissionService handler.SubmissionService,
	guard middleware.Guard,
	pinger model.Pinger,
	contextManager model.ContextManager,
	metrics *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *logger.Logger,
) *Router {
	return &Router{
		cfg:               cfg,
		authService:       authService,
		submissionService: submissionService,
		guard:             guard,
		pinger:            pinger,
		contextManager:    contextManager,
		metrics:           metrics,
		gatherer:          gatherer,
		logger:            logger,
	}
}

// Register builds the fiber application with every route mounted.
func (r *Router) Register() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          handler.ErrorHandler(r.logger),
		BodyLimit:             r.cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(middleware.NewMetrics(r.metrics).Handle)
	app.Use(middleware.NewLogging(r.logger).Handle)
	app.Use(recover.New())
	app.Use(cors.New())

	system := handler.NewSystem(r.pinger, r.logger)
	app.Get("/", system.Root)
	app.Get("/healthz", system.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	authenticate := middleware.NewAuthenticate(r.guard, r.contextManager, r.logger)

	r.registerAuthRoutes(app.Group("/api/auth"), authenticate)
	r.registerSubmissionRoutes(app.Group("/api/submissions", authenticate.Handle), authenticate)

	app.Use(middleware.NotFound)

	return app
}

func (r *Router) registerAuthRoutes(api fiber.Router, authenticate *middleware.Authenticate) {
	auth := handler.NewAuth(r.authService, r.contextManager, r.logger)

	api.Post("/signup", auth.Signup)
	api.Post("/login", auth.Login)
	api.Post("/request-otp", auth.RequestOTP)
	api.Post("/verify-otp", auth.VerifyOTP)
	api.Post("/hello", auth.Hello)

	api.Get("/me", authenticate.Handle, auth.Me)
	api.Put("/me", authenticate.Handle, auth.UpdateMe)
	api.Get("/check-admin", authenticate.Handle, auth.CheckAdmin)
}

func (r *Router) registerSubmissionRoutes(api fiber.Router, authenticate *middleware.Authenticate) {
	submissions := handler.NewSubmission(r.submissionService, r.contextManager, r.logger)

	api.Post("/", submissions.Create)
	api.Get("/me", submissions.ListMine)

	admin := api.Group("/admin", authenticate.RequireRole(model.RoleAdmin))
	admin.Get("/users", submissions.ListUsers)
	admin.Get("/submissions", submissions.ListAll)
	admin.Get("/submissions/export", submissions.Export)
	admin.Put("/submissions/:id/status", submissions.UpdateStatus)
}

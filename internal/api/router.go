package api

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facematch/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/facematch/internal/config"
	"github.com/saturnino-fabrica-de-software/facematch/internal/faceimage"
)

// bodyOverhead leaves room for multipart framing around the largest accepted image
const bodyOverhead = 1 << 20

// MatchingService is the matching layer as seen by the HTTP API
type MatchingService interface {
	handler.FaceService
	handler.EnrollmentCounter
}

type Dependencies struct {
	Service   MatchingService
	Readiness handler.Readiness
	// Archive is optional; nil skips photo archiving.
	Archive handler.PhotoArchive
	Limits  faceimage.Limits
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	cfg         *config.Config
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, cfg *config.Config, deps *Dependencies) *Router {
	fiberCfg := fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Face Match API",
	}
	if deps != nil && deps.Limits.MaxBytes > 0 {
		fiberCfg.BodyLimit = int(deps.Limits.MaxBytes) + bodyOverhead
	}

	return &Router{
		app:    fiber.New(fiberCfg),
		logger: logger,
		cfg:    cfg,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(middleware.RequestID())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:  r.cfg.Origins(),
		AllowMethods:  "GET,POST,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
		ExposeHeaders: "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset,Retry-After",
	}))

	// Swagger documentation (no auth required)
	sw := docs.NewSwagger(fmt.Sprintf("localhost:%d", r.cfg.Port))
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var (
		readiness handler.Readiness
		counter   handler.EnrollmentCounter
	)
	if r.deps != nil {
		readiness = r.deps.Readiness
		counter = r.deps.Service
	}

	// Probes (no auth required)
	healthHandler := handler.NewHealthHandler(readiness, counter)
	r.app.Get("/", healthHandler.Root)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	r.rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Max:    r.cfg.RateLimitMax,
		Window: r.cfg.RateLimitWindow,
	})
	protected := []fiber.Handler{
		middleware.APIKey(r.cfg.APIKey),
		r.rateLimiter.Handler(),
	}

	faceHandler := handler.NewFaceHandler(r.deps.Service, r.deps.Archive, r.deps.Limits)

	// Face routes
	r.app.Post("/recognize", append(protected, faceHandler.Recognize)...)

	faces := r.app.Group("/api/face", protected...)
	faces.Post("/register", faceHandler.Register)
	faces.Get("/:employee_id", faceHandler.Get)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}

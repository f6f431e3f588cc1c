package api

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/eventos/reservas-api/internal/api/handler"
	"github.com/eventos/reservas-api/internal/api/middleware"
	"github.com/eventos/reservas-api/internal/core/domain"
	"github.com/eventos/reservas-api/internal/core/ports"
	"github.com/eventos/reservas-api/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the router wires into handlers. Redis and Mongo
// may be nil when those backends are not configured.
type Deps struct {
	Log                zerolog.Logger
	DB                 *sql.DB
	Redis              *redis.Client
	Mongo              *mongo.Database
	AuthService        ports.AuthService
	ReservationService ports.ReservationService
	AuthRequired       bool
	CORSOrigins        []string
	RateLimit          middleware.RateLimitConfig
	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
			echo.HeaderAuthorization, "Idempotency-Key",
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper:    skipOps,
	}))

	rl := d.RateLimit
	rl.Skipper = skipOps
	rateLimit := middleware.RateLimit(rl, d.Redis, d.Log)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.AuthService)
	reservationHandler := handler.NewReservationHandler(d.ReservationService)

	// --- Auth routes ---
	e.POST("/registrar", authHandler.Register, rateLimit)
	e.POST("/login", authHandler.Login, rateLimit)

	// --- Reservation routes ---
	// Booking needs any session; everything else is for admins.
	session, admin := []echo.MiddlewareFunc{rateLimit}, []echo.MiddlewareFunc{rateLimit}
	if d.AuthRequired {
		authn := middleware.Auth(d.AuthService)
		session = []echo.MiddlewareFunc{authn, rateLimit}
		admin = []echo.MiddlewareFunc{authn, rateLimit, middleware.RBAC(domain.RoleAdmin)}
	}

	reservas := e.Group("/reservas")
	reservas.POST("", reservationHandler.Create, session...)
	reservas.GET("", reservationHandler.List, admin...)
	reservas.GET("/resumen", reservationHandler.Summary, admin...)
	reservas.PUT("/:id", reservationHandler.Update, admin...)
	reservas.DELETE("/:id", reservationHandler.Delete, admin...)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.DB, d.Redis, d.Mongo)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "route not found")
	})

	return e
}

// skipOps excludes probes, metrics and docs from request metrics and rate limiting.
func skipOps(c echo.Context) bool {
	p := c.Path()
	return strings.HasPrefix(p, "/health") || p == "/metrics" || strings.HasPrefix(p, "/swagger")
}

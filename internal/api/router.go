package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/entityhub/entity-manager/internal/api/handler"
	"github.com/entityhub/entity-manager/internal/api/middleware"
	"github.com/entityhub/entity-manager/internal/auth"
	"github.com/entityhub/entity-manager/internal/core/ports"
	"github.com/entityhub/entity-manager/internal/core/service"
	"github.com/entityhub/entity-manager/internal/infrastructure/http/handlers"
	"github.com/entityhub/entity-manager/internal/ratelimit"
)

// Dependencies is everything NewRouter wires together. Sink, HealthChecks,
// Registerer and Gatherer are optional.
type Dependencies struct {
	Users    ports.UserRepository
	Entities ports.EntityRepository
	Hasher   ports.PasswordHasher
	Tokens   *auth.TokenService
	Limiters *ratelimit.Set
	Sink     middleware.DecisionSink
	Logger   zerolog.Logger

	SecureCookie bool
	HealthChecks []handlers.DependencyCheck

	// HTTP metrics and /metrics are mounted only when Registerer is set.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if deps.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "entity_manager",
			Subsystem:  "http",
			Registerer: deps.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics"
			},
		}))
	}
	e.Use(middleware.Gate(deps.Tokens, middleware.GateOptions{SecureCookie: deps.SecureCookie}))

	// --- Dependencies ---
	authService := service.NewAuthService(deps.Users, deps.Entities, deps.Hasher, deps.Tokens, deps.Logger)
	entityService := service.NewEntityService(deps.Entities, deps.Logger)

	authHandler := handler.NewAuthHandler(authService, deps.SecureCookie)
	entityHandler := handler.NewEntityHandler(entityService)
	pageHandler := handler.NewPageHandler()

	requireAuth := middleware.RequireAuth(middleware.NewAuthenticator(deps.Tokens))
	authLimit := middleware.RateLimit(deps.Limiters.Auth, middleware.RateLimitOptions{
		Name:   deps.Limiters.Auth.Name(),
		Sink:   deps.Sink,
		Logger: deps.Logger,
	})
	apiLimit := middleware.RateLimit(deps.Limiters.API, middleware.RateLimitOptions{
		Name:   deps.Limiters.API.Name(),
		Sink:   deps.Sink,
		Logger: deps.Logger,
	})

	// --- Auth routes ---
	authGroup := e.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register, authLimit)
	authGroup.POST("/login", authHandler.Login, authLimit)
	authGroup.POST("/logout", authHandler.Logout)

	e.GET("/api/user/profile", authHandler.Profile, requireAuth)

	// --- Entity routes (rate limited, then authenticated) ---
	entities := e.Group("/api/entities", apiLimit, requireAuth)
	entities.GET("", entityHandler.List)
	entities.POST("", entityHandler.Create)
	entities.GET("/:id", entityHandler.Get)
	entities.PUT("/:id", entityHandler.Update)
	entities.DELETE("/:id", entityHandler.Delete)

	// --- Pages (guarded by the request gate) ---
	e.GET(middleware.LoginPath, pageHandler.Login)
	e.GET(middleware.RegisterPath, pageHandler.Register)
	e.GET(middleware.DashboardPath, pageHandler.Dashboard)
	e.GET(middleware.DashboardPath+"/*", pageHandler.Dashboard)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Operational endpoints ---
	if deps.Registerer != nil {
		gatherer := deps.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= 500:
				ev = log.Error().Err(v.Error)
			case v.Error != nil:
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/nrednav/cuid2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/accounts-api/docs"
	"github.com/99minutos/accounts-api/internal/api/handler"
	"github.com/99minutos/accounts-api/internal/api/middleware"
	"github.com/99minutos/accounts-api/internal/core/access"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	Accounts ports.AccountService
	Guard    middleware.Authenticator
	Health   map[string]handler.Pinger
	Logger   zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics and /metrics. Nil means
	// the prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// EnableDocs mounts the swagger UI under /swagger.
	EnableDocs bool
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
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: cuid2.Generate,
	}))
	e.Use(requestLogger(d.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "accounts",
		Registerer: d.Registerer,
	}))

	auth := middleware.Auth(d.Guard)
	staff := middleware.Require(access.StaffOrAdmin)
	h := handler.NewAccountHandler(d.Accounts)

	// --- Users ---
	users := e.Group("/users")
	users.POST("/signup", h.Signup)
	users.POST("/login", h.Login)
	users.POST("/token/refresh", h.Refresh)
	users.POST("/recover-password", h.RecoverPassword)
	users.POST("/logout", h.Logout, auth)
	users.GET("/me", h.Me, auth)
	users.GET("/choices", h.Choices, auth)
	users.PUT("/update", h.Update, auth)
	users.PUT("/password", h.ChangePassword, auth)
	users.DELETE("/deactivate", h.Deactivate, auth)
	users.PUT("/activate/:id", h.Activate, auth)
	users.GET("", h.List, auth, staff)
	users.GET("/:id", h.Get, auth, staff)

	// --- Core ---
	e.GET("/core/task-result/:task_id", h.TaskResult, auth, staff)

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)

	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))

	if d.EnableDocs {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/crossfitlagos/member-portal/docs"
	"github.com/crossfitlagos/member-portal/internal/api/handler"
	"github.com/crossfitlagos/member-portal/internal/api/middleware"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Portal      handler.PortalService
	Checks      map[string]handler.Check
	Device      middleware.DeviceConfig
	RateLimiter *middleware.RateLimiter
	// AccountLimiter throttles login and reset per phone number.
	AccountLimiter *middleware.RateLimiter
	// CORSOrigins enables CORS with credentials for the listed origins.
	CORSOrigins []string
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("portal"))
	e.Use(echomiddleware.BodyLimit("16K"))
	if len(deps.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     deps.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	// --- Ops (no device required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Portal ---
	var portalOpts []handler.PortalOption
	if deps.AccountLimiter != nil {
		portalOpts = append(portalOpts, handler.WithAccountLimiter(deps.AccountLimiter))
	}
	portalHandler := handler.NewPortalHandler(deps.Portal, portalOpts...)
	pauseHandler := handler.NewPauseHandler(deps.Portal)

	g := e.Group("/api/v1/portal", middleware.Device(deps.Device))
	limited := []echo.MiddlewareFunc{}
	if deps.RateLimiter != nil {
		limited = append(limited, deps.RateLimiter.Middleware())
	}

	g.GET("", portalHandler.Start)
	g.POST("/login", portalHandler.Login, limited...)
	g.POST("/reset", portalHandler.Reset, limited...)
	g.POST("/pin", portalHandler.Pin, limited...)
	g.POST("/back", portalHandler.Back)
	g.POST("/cancel", portalHandler.Cancel)
	g.POST("/logout", portalHandler.Logout)
	g.POST("/notifications", portalHandler.Notifications)
	g.GET("/pause", pauseHandler.Overview)
	g.POST("/pause", pauseHandler.Request, limited...)

	return e
}

// requestLogger logs one line per request through zerolog.
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
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/platform-skeleton/docs"
	"github.com/99minutos/platform-skeleton/internal/api/handler"
	"github.com/99minutos/platform-skeleton/internal/api/middleware"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
	"github.com/99minutos/platform-skeleton/internal/pkg/config"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Settings  *config.Settings
	Accounts  ports.AccountService
	Readiness []handler.Dependency
	// Log receives handler errors; HTTPLog receives one line per request.
	Log      zerolog.Logger
	HTTPLog  zerolog.Logger
	Reporter ErrorReporter
	// Registry collects HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	s := d.Settings

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Reporter, s.Debug)

	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	// --- Global middleware, in order ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.HTTPLog))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
		Skipper:    func(c echo.Context) bool { return c.Path() == "/metrics" },
	}))
	if cors, ok := corsMiddleware(s.CORS); ok {
		e.Use(cors)
	}
	if s.IsProduction() {
		e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
			ContentTypeNosniff:    nosniff(s.Security.ContentTypeNosniff),
			XFrameOptions:         s.Security.XFrameOptions,
			HSTSMaxAge:            s.Security.HSTSSeconds,
			HSTSExcludeSubdomains: !s.Security.HSTSIncludeSubdomains,
			HSTSPreloadEnabled:    s.Security.HSTSPreload,
		}))
		if s.Security.SSLRedirect {
			e.Use(echomiddleware.HTTPSRedirectWithConfig(echomiddleware.RedirectConfig{
				Skipper: isHealthProbe,
				Code:    http.StatusMovedPermanently,
			}))
		}
	}
	e.Use(middleware.AllowedHosts(middleware.HostsConfig{
		Skipper: isHealthProbe,
		Hosts:   s.AllowedHosts,
		Debug:   s.Debug,
	}))
	e.Use(middleware.TrustedOrigins(middleware.OriginsConfig{
		Trusted: s.CSRF.TrustedOrigins,
	}))

	// --- Health probes (no auth required) ---
	health := handler.NewHealthHandler(s.Debug, d.Readiness...)
	e.GET("/health", health.Liveness)
	e.GET("/health/", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/health/ready/", health.Readiness)

	// --- Admin ---
	admin := handler.NewAdminHandler(d.Accounts, handler.SessionCookie{
		Name:   s.Session.CookieName,
		Secure: s.Session.CookieSecure,
	})
	auth := middleware.Auth(d.Accounts, s.Session.CookieName)

	e.POST("/admin/login/", admin.Login)
	staff := e.Group("/admin", auth, middleware.StaffOnly())
	staff.GET("/", admin.Me)
	staff.POST("/logout/", admin.Logout)
	staff.GET("/accounts/", admin.Accounts, middleware.SuperuserOnly())

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))

	// --- Files ---
	registerStatic(e, s.Static, s.Debug)

	if s.Debug {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	return e
}

func isHealthProbe(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/health")
}

func nosniff(on bool) string {
	if on {
		return "nosniff"
	}
	return ""
}

// corsMiddleware returns false when no origin may be served, so that no
// CORS headers are emitted at all.
func corsMiddleware(c config.CORSSettings) (echo.MiddlewareFunc, bool) {
	if c.AllowAll {
		return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: []string{"*"},
		}), true
	}
	if len(c.AllowedOrigins) == 0 {
		return nil, false
	}
	return echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     c.AllowedOrigins,
		AllowCredentials: true,
	}), true
}

// registerStatic serves collected static files, and uploaded media while
// debugging. Manifest storage adds compression and long-lived caching.
func registerStatic(e *echo.Echo, s config.StaticSettings, debug bool) {
	static := e.Group(strings.TrimSuffix(s.URL, "/"))
	if s.Storage == config.StaticStorageManifest {
		static.Use(echomiddleware.Gzip())
		static.Use(cacheControl("public, max-age=31536000, immutable"))
	}
	static.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{Root: s.Root}))

	if debug {
		e.Group(strings.TrimSuffix(s.MediaURL, "/")).
			Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{Root: s.MediaRoot}))
	}
}

func cacheControl(value string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderCacheControl, value)
			return next(c)
		}
	}
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			switch {
			case v.Status >= http.StatusInternalServerError:
				ev = log.Error()
			case v.Status >= http.StatusBadRequest:
				ev = log.Warn()
			}
			if v.Error != nil {
				ev = ev.Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// OriginsConfig configures TrustedOrigins.
type OriginsConfig struct {
	Skipper echomiddleware.Skipper
	// Trusted holds full origins such as "https://admin.example.com".
	// A "*." after the scheme matches any subdomain.
	Trusted []string
}

// TrustedOrigins rejects cross-origin unsafe requests. Requests without an
// Origin header and same-origin requests pass.
func TrustedOrigins(cfg OriginsConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	trusted := make([]string, 0, len(cfg.Trusted))
	for _, o := range cfg.Trusted {
		trusted = append(trusted, strings.ToLower(strings.TrimSuffix(o, "/")))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) || safeMethod(c.Request().Method) {
				return next(c)
			}
			origin := strings.ToLower(c.Request().Header.Get(echo.HeaderOrigin))
			if origin == "" {
				return next(c)
			}
			if origin == strings.ToLower(c.Scheme()+"://"+c.Request().Host) || originTrusted(origin, trusted) {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "origin checking failed: "+origin+" does not match any trusted origins")
		}
	}
}

func safeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

func originTrusted(origin string, trusted []string) bool {
	for _, t := range trusted {
		if origin == t {
			return true
		}
		scheme, host, ok := strings.Cut(t, "://*.")
		if !ok {
			continue
		}
		prefix := scheme + "://"
		if !strings.HasPrefix(origin, prefix) {
			continue
		}
		rest := origin[len(prefix):]
		if rest == host || strings.HasSuffix(rest, "."+host) {
			return true
		}
	}
	return false
}

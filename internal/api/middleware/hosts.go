package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// debugHosts are accepted when debug is on and no hosts are configured.
var debugHosts = []string{".localhost", "127.0.0.1", "[::1]"}

// HostsConfig configures AllowedHosts.
type HostsConfig struct {
	Skipper echomiddleware.Skipper
	// Hosts are exact names, ".example.com" for a domain and its
	// subdomains, or "*" for any host.
	Hosts []string
	Debug bool
}

// AllowedHosts rejects requests whose Host header is not allowlisted.
func AllowedHosts(cfg HostsConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	patterns := make([]string, 0, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		patterns = append(patterns, strings.ToLower(h))
	}
	if len(patterns) == 0 && cfg.Debug {
		patterns = debugHosts
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			domain := hostDomain(c.Request().Host)
			if domain == "" || !hostAllowed(domain, patterns) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid HTTP_HOST header")
			}
			return next(c)
		}
	}
}

// hostDomain lowercases host and strips the port. IPv6 literals keep their
// brackets.
func hostDomain(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	if strings.HasSuffix(host, "]") {
		return host
	}
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return strings.TrimSuffix(host, ".")
}

func hostAllowed(domain string, patterns []string) bool {
	for _, p := range patterns {
		switch {
		case p == "*":
			return true
		case strings.HasPrefix(p, "."):
			if domain == p[1:] || strings.HasSuffix(domain, p) {
				return true
			}
		case domain == p:
			return true
		}
	}
	return false
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

// SessionVerifier checks admin session tokens.
type SessionVerifier interface {
	VerifySession(ctx context.Context, token string) (*ports.SessionClaims, error)
}

// Auth validates the session token and injects its claims into context. The
// token is read from the Authorization bearer header, falling back to the
// session cookie.
func Auth(verifier SessionVerifier, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := sessionToken(c, cookieName)
			if err != nil {
				return err
			}

			claims, err := verifier.VerifySession(c.Request().Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, domain.ErrSessionRevoked):
					return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
				case errors.Is(err, domain.ErrInvalidCredentials):
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				default:
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session store unavailable").SetInternal(err)
				}
			}

			c.Set("claims", claims)
			c.Set("username", claims.Username)
			c.Set("role", claims.Role)

			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
		}
		return parts[1], nil
	}

	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value, nil
		}
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
}

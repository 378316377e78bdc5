package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/core/ports"
)

// ContextKeyClaims is where the Auth middleware stores the verified session.
const ContextKeyClaims = "claims"

// ctxClaims extracts the session claims injected by the Auth middleware.
// A missing or empty value means the route was registered without it.
func ctxClaims(c echo.Context) (*ports.SessionClaims, error) {
	claims, _ := c.Get(ContextKeyClaims).(*ports.SessionClaims)
	if claims == nil || claims.Username == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}

package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/platform-skeleton/internal/core/domain"
)

// RBAC enforces role-based access control.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// StaffOnly admits staff and superusers.
func StaffOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleStaff, domain.RoleSuperuser)
}

// SuperuserOnly admits superusers.
func SuperuserOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleSuperuser)
}

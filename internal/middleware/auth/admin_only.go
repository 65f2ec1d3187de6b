package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(s *tokens.Session) error {
		if !s.HasRole(roles.Admin) {
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		}
		return nil
	})
}

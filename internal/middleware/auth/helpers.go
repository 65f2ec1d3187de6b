package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

const sessionKey = "session"

func setSession(c echo.Context, s *tokens.Session) {
	c.Set(sessionKey, s)
	c.Set("username", s.Subject)
	c.Set("roles", s.Roles)
}

// SessionFrom returns the session stored by RequireAuth, or nil.
func SessionFrom(c echo.Context) *tokens.Session {
	s, _ := c.Get(sessionKey).(*tokens.Session)
	return s
}

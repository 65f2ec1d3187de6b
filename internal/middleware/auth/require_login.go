package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/service"
	"github.com/Skotchmaster/tutorial_catalog/internal/tokens"
)

type Authenticator interface {
	Authenticate(authorization string) (*tokens.Session, error)
}

type ValidatorFunc func(s *tokens.Session) error

type BearerAuth struct {
	Auth Authenticator
}

func NewBearerAuth(a Authenticator) *BearerAuth {
	return &BearerAuth{Auth: a}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *BearerAuth) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, err := m.Auth.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil || sess == nil {
			msg := "Unauthorized"
			if err != nil {
				msg = service.Message(err)
			}
			logging.FromContext(c.Request().Context()).Warn("auth_rejected", "status", 401, "reason", msg)
			return echo.NewHTTPError(http.StatusUnauthorized, msg)
		}

		if validator != nil {
			if err := validator(sess); err != nil {
				return err
			}
		}

		setSession(c, sess)
		return next(c)
	}
}

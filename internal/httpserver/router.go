package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authmw "github.com/Skotchmaster/tutorial_catalog/internal/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Auth        *authmw.BearerAuth
	// Ready reports whether the service can take traffic. Nil means always ready.
	Ready    func(ctx context.Context) error
	Gatherer prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "not ready"})
			}
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := e.Group("/api")

	api.POST("/users/authenticate", d.AuthHandler.Login)
	api.POST("/users/register", d.AuthHandler.Register)
	api.POST("/users/password/change", d.AuthHandler.ChangePassword)
	api.POST("/users/password-reset/request", d.AuthHandler.RequestReset)
	api.POST("/users/password-reset/confirm", d.AuthHandler.ConfirmReset)
	api.POST("/users/logout", d.AuthHandler.LogOut)
	api.POST("/token/refresh", d.AuthHandler.Refresh)

	api.GET("/users", d.AuthHandler.ListUsers, d.Auth.RequireAuth)
	if d.AuthHandler.Svc.SearchEnabled() {
		api.GET("/users/search", d.AuthHandler.SearchUsers, d.Auth.RequireAdmin)
	}
}

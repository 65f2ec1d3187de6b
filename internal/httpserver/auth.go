package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	authmw "github.com/Skotchmaster/tutorial_catalog/internal/middleware/auth"
	"github.com/Skotchmaster/tutorial_catalog/internal/service"
	"github.com/Skotchmaster/tutorial_catalog/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func authResponse(res *service.AuthResult) transport.AuthResponse {
	return transport.AuthResponse{
		ID:           res.User.ID,
		Username:     res.User.Username,
		FirstName:    res.User.FirstName,
		LastName:     res.User.LastName,
		Roles:        res.Roles,
		Token:        res.Token,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    res.ExpiresIn,
	}
}

func userResponse(u service.UserSummary) transport.UserResponse {
	return transport.UserResponse{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Identity(), req.Password)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, authResponse(res))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, service.Registration{
		Username:  req.Identity(),
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusCreated, authResponse(res))
}

func (h *AuthHTTP) ListUsers(c echo.Context) error {
	users, err := h.Svc.ListUsers(c.Request().Context(), authmw.SessionFrom(c))
	if err != nil {
		return toHTTP(err)
	}

	out := make([]transport.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHTTP) SearchUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	res, err := h.Svc.SearchUsers(c.Request().Context(), authmw.SessionFrom(c), c.QueryParam("q"), page, size)
	if err != nil {
		return toHTTP(err)
	}

	out := transport.SearchResponse{Total: res.Total, Page: res.Page, Size: res.Size, Users: make([]transport.UserResponse, 0, len(res.Users))}
	for _, u := range res.Users {
		out.Users = append(out.Users, userResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_change_password")

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	authz := c.Request().Header.Get(echo.HeaderAuthorization)
	if err := h.Svc.ChangePassword(ctx, authz, req.CurrentPassword, req.NewPassword); err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password changed successfully"})
}

func (h *AuthHTTP) RequestReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_request")

	var req transport.ResetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_request_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		return toHTTP(err)
	}

	out := transport.ResetRequestResponse{Message: res.Message}
	if res.Exposed {
		dispatched := res.Dispatched
		out.Dispatched = &dispatched
		out.Transport = res.Transport
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHTTP) ConfirmReset(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset_confirm")

	var req transport.ResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_confirm_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ConfirmPasswordReset(ctx, req.Token, req.Password); err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password updated successfully"})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return toHTTP(err)
	}
	return c.JSON(http.StatusOK, transport.RefreshResponse{Token: res.Token, RefreshToken: res.RefreshToken, ExpiresIn: res.ExpiresIn})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return toHTTP(err)
	}
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out"})
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/metrics"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

type RefreshResult struct {
	Token        string
	RefreshToken string
	ExpiresIn    int
}

// Refresh trades a live refresh token for a new session token and a new
// refresh token. The presented token is revoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (res *RefreshResult, err error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")
	defer func() { metrics.RecordAuth("refresh", outcome(err)) }()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, fail(ErrBadRequest, "refresh_token is required")
	}

	username, next, _, err := s.RefreshTokens.RotateRefresh(ctx, refreshToken, s.refreshTTL())
	if err != nil {
		if errors.Is(err, repo.ErrRefreshUnknown) || errors.Is(err, repo.ErrRefreshExpired) || errors.Is(err, repo.ErrRefreshRevoked) {
			l.Warn("refresh_failed", "status", 401, "reason", err.Error())
			return nil, fail(ErrUnauthorized, "Invalid refresh token")
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return nil, internal("Internal error", err)
	}

	acc, err := s.Accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, fail(ErrUnauthorized, "Invalid refresh token")
		}
		return nil, internal("Internal error", err)
	}

	token, _, err := s.Tokens.IssueSession(acc.Username, roles.Resolve(acc.Roles))
	if err != nil {
		return nil, internal("Internal error", err)
	}

	return &RefreshResult{
		Token:        token,
		RefreshToken: next,
		ExpiresIn:    int(s.Tokens.SessionTTL() / time.Second),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) (err error) {
	defer func() { metrics.RecordAuth("logout", outcome(err)) }()

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return fail(ErrBadRequest, "refresh_token is required")
	}
	if err := s.RefreshTokens.RevokeRefresh(ctx, refreshToken); err != nil {
		logging.FromContext(ctx).With("svc", "auth.logout").Error("logout_failed", "status", 500, "reason", "cannot revoke refreshToken", "error", err)
		return internal("Internal error", err)
	}
	return nil
}

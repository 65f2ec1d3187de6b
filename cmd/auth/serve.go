package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tutorial_catalog/internal/db"
	"github.com/Skotchmaster/tutorial_catalog/internal/httpserver"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/metrics"
	authmw "github.com/Skotchmaster/tutorial_catalog/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/tutorial_catalog/internal/middleware/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/repo"
)

const (
	initTimeout     = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Hour
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	l := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		l.Error("invalid configuration", "error", err)
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	a, err := buildApp(logging.IntoContext(initCtx, l), cfg, l)
	cancel()
	if err != nil {
		l.Error("startup failed", "error", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			l.Error("shutdown close failed", "error", err)
		}
	}()

	if cfg.AdminSeedWhenEmpty {
		seedCtx := logging.IntoContext(ctx, l)
		if _, err := a.svc.SeedAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			l.Warn("admin seed failed", "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterMetrics(reg)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
	e.Use(loggingmw.RequestLogger(l))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: a.svc},
		Auth:        authmw.NewBearerAuth(a.svc),
		Ready:       func(ctx context.Context) error { return db.Ping(ctx, a.db) },
		Gatherer:    reg,
	})

	go cleanupRefreshTokens(ctx, a.repo, l)

	errCh := make(chan error, 1)
	go func() {
		l.Info("http server started", "addr", cfg.Addr)
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			l.Error("http server error", "error", err)
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		l.Error("server shutdown error", "error", err)
	}
	l.Info("shutdown complete")
	return nil
}

// cleanupRefreshTokens deletes expired refresh tokens until ctx is done.
func cleanupRefreshTokens(ctx context.Context, r *repo.GormRepo, l *slog.Logger) {
	t := time.NewTicker(cleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := r.DeleteExpiredRefresh(ctx, now)
			if err != nil {
				l.Warn("refresh cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("refresh cleanup", "deleted", n)
			}
		}
	}
}

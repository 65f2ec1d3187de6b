package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tutorial_catalog/internal/config"
	"github.com/Skotchmaster/tutorial_catalog/internal/db"
	"github.com/Skotchmaster/tutorial_catalog/internal/logging"
	"github.com/Skotchmaster/tutorial_catalog/internal/service"
)

const defaultCommandTimeout = 30 * time.Second

type seedConfig struct {
	email    string
	password string
	timeout  time.Duration
}

// NewSeedAdminCmd creates the seed-admin subcommand.
func NewSeedAdminCmd() *cobra.Command {
	cfg := &seedConfig{}

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the first administrator when no account exists",
		Long: `Creates an administrator account from ADMIN_EMAIL and ADMIN_PASSWORD.
Nothing is written when the users table already has rows.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeedAdmin(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.email, "email", "", "admin email (defaults to ADMIN_EMAIL)")
	cmd.Flags().StringVar(&cfg.password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", defaultCommandTimeout, "timeout for database operations")

	return cmd
}

func runSeedAdmin(cmd *cobra.Command, sc *seedConfig) error {
	cfg := loadConfig()
	l := newLogger(cfg)

	email, password := sc.email, sc.password
	if email == "" {
		email = cfg.AdminEmail
	}
	if password == "" {
		password = cfg.AdminPassword
	}
	config.MustNonEmpty(email, "ADMIN_EMAIL")
	config.MustNonEmpty(password, "ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(cmdContext(cmd), sc.timeout)
	defer cancel()
	ctx = logging.IntoContext(ctx, l)

	hasher, err := newHasher(cfg)
	if err != nil {
		return err
	}
	gdb, r, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	svc := &service.AuthService{Accounts: r, RefreshTokens: r, Hasher: hasher}
	created, err := svc.SeedAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	if created {
		cmd.Printf("admin %s created\n", logging.RedactEmail(email))
	} else {
		cmd.Println("users table not empty, nothing to do")
	}
	return nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

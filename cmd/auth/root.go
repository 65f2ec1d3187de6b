package main

import (
	"github.com/spf13/cobra"
)

var logLevel string

// NewRootCmd creates the root command of the auth service CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "auth",
		Short:         "Tutorial catalog authentication service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSeedAdminCmd())
	cmd.AddCommand(NewNormalizeRolesCmd())
	cmd.AddCommand(NewListUsersCmd())
	cmd.AddCommand(NewGenKeysCmd())

	return cmd
}

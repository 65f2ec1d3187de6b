package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tutorial_catalog/internal/db"
)

// NewNormalizeRolesCmd rewrites stored role sets into canonical JSON arrays.
func NewNormalizeRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize-roles",
		Short: "Rewrite stored roles into canonical JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(cmdContext(cmd), defaultCommandTimeout)
			defer cancel()

			gdb, r, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			n, err := r.NormalizeRoles(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("normalized roles for %d account(s)\n", n)
			return nil
		},
	}
}

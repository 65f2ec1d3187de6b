package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/tutorial_catalog/internal/db"
	"github.com/Skotchmaster/tutorial_catalog/internal/roles"
)

func NewListUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-users",
		Short: "Print every account with its roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadConfig()

			ctx, cancel := context.WithTimeout(cmdContext(cmd), defaultCommandTimeout)
			defer cancel()

			gdb, r, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			accounts, err := r.ListAccounts(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tNAME\tROLES")
			for _, a := range accounts {
				fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\n", a.ID, a.Username, a.FirstName, a.LastName, roles.Encode(roles.Resolve(a.Roles)))
			}
			return w.Flush()
		},
	}
}

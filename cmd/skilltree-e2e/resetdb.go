package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltree-e2e/internal/dbreset"
)

func newResetDBCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reset-db",
		Short: "Truncate the SkillTree tables",
		Long: `reset-db truncates database.tables, minus database.preserve, in one
transaction. Identities restart and dependent rows cascade.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				r := dbreset.New(nil, a.cfg.Database, a.log)
				fmt.Fprintln(a.out, summary("reset-db (dry run)", [][2]string{
					{"database", fmt.Sprintf("%s@%s:%d/%s", a.cfg.Database.User, a.cfg.Database.Host, a.cfg.Database.Port, a.cfg.Database.Name)},
					{"tables", strings.Join(r.Tables(), ", ")},
				}))
				return nil
			}

			db, err := dbreset.Open(cmd.Context(), a.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			done, err := dbreset.New(db, a.cfg.Database, a.log).Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, summary("reset-db", [][2]string{
				{"result", passFail(true)},
				{"truncated", strings.Join(done, ", ")},
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the tables that would be truncated")
	return cmd
}

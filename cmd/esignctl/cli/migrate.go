package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the tables this service owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, rt, err := s.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := migrateDB(rt.db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated database %q\n", cfg.Database.DBName)
			return nil
		},
	}
}

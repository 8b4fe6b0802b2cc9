package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (st *rootState) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.deps.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applied, err := st.deps.Migrate(cmd.Context(), cfg.Database.DSN)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Database is up to date.")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied migration %05d\n", v)
			}
			return nil
		},
	}
}

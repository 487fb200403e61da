package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize slowcomb storage",
		Long:  "Create configuration and data directories, then initialize the unit store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.attachStore()
			if err != nil {
				return err
			}
			if err := store.Detach(); err != nil {
				return sysError("finalize storage: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "slowcomb initialized in %s\n", a.dataDir)
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release of the slowcomb module.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/slowcomb"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the slowcomb version",
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "slowcomb v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// Destroy returns the destroy command.
func Destroy() *cobra.Command {
	var yes, purge bool

	cmd := &cobra.Command{
		Use:   "destroy NODE",
		Short: "Destroy the instance of a node",
		Long: `Destroy deletes the instance recorded for NODE and removes the node's
cached client key.

The node record keeps its provisioner URL so a later acquire uses the same
provider. Use --purge to remove the record as well.

Example:
  fogprov destroy web-1 --yes

WARNING: This operation is irreversible. The instance and its disks are lost.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Destroy(cmd.Context(), global, args[0], yes, purge)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&purge, "purge", false, "Remove the node record from the store")

	return cmd
}

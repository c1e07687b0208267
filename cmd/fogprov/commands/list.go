package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// List returns the list command.
func List() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List instances managed by this provisioner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.List(cmd.Context(), global)
		},
	}
}

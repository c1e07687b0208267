package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// Acquire returns the acquire command.
//
// The acquire command makes sure a node has a running instance. A node
// without a recorded instance gets a new one built from its bootstrap
// options; a stopped instance is started; a running one is reused.
func Acquire() *cobra.Command {
	var converge bool

	cmd := &cobra.Command{
		Use:   "acquire NODE",
		Short: "Create, start or reuse the instance for a node",
		Long: `Acquire makes sure NODE has a running instance and records it.

Nodes unknown to the node store are seeded from node_defaults in the
configuration file. The record is saved as soon as an instance identifier
is known, so a failed acquire can be re-run safely.

Example:
  fogprov acquire web-1 --converge`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Acquire(cmd.Context(), global, args[0], converge)
		},
	}

	cmd.Flags().BoolVar(&converge, "converge", false, "Install and run the configuration-management agent after acquiring")

	return cmd
}

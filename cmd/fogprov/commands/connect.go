package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// Connect returns the connect command.
func Connect() *cobra.Command {
	return &cobra.Command{
		Use:   "connect NODE [-- COMMAND...]",
		Short: "Run a command on a node's instance",
		Long: `Connect opens the instance recorded for NODE without creating,
starting or destroying anything.

With a command after --, the command runs on the instance and its output is
printed. Without one, the instance details are printed.

Example:
  fogprov connect web-1 -- uptime`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.Connect(cmd.Context(), global, args[0], args[1:])
		},
	}
}

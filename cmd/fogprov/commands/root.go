// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// global is bound to the root command's persistent flags.
var global handlers.Global

// Root returns the root command for the fogprov CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fogprov",
		Short:         "Provision compute instances for configuration-managed nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&global.ConfigPath, "config", "c", "", "Path to configuration file (default: fogprov.yaml in this or a parent directory)")
	cmd.PersistentFlags().StringVar(&global.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the command finishes")

	// Node lifecycle
	cmd.AddCommand(Acquire())
	cmd.AddCommand(Connect())
	cmd.AddCommand(Destroy())
	cmd.AddCommand(List())

	// Utility commands
	cmd.AddCommand(Keygen())
	cmd.AddCommand(Version())

	return cmd
}

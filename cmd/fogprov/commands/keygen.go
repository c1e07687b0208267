package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/fogprov/cmd/fogprov/handlers"
)

// Keygen returns the keygen command.
func Keygen() *cobra.Command {
	var (
		keyType string
		bits    int
	)

	cmd := &cobra.Command{
		Use:   "keygen PATH",
		Short: "Generate an SSH key pair for instance access",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.Keygen(args[0], keyType, bits)
		},
	}

	cmd.Flags().StringVarP(&keyType, "type", "t", "ed25519", "Key type (rsa or ed25519)")
	cmd.Flags().IntVarP(&bits, "bits", "b", 4096, "RSA key size")

	return cmd
}

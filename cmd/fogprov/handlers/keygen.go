package handlers

import (
	"fmt"

	"github.com/imamik/fogprov/internal/util/keygen"
)

// Keygen handles the keygen command.
//
// It writes a new key pair to path and path.pub for use as the compute
// driver's private_key_path.
func Keygen(path string, keyType string, bits int) error {
	kp, err := keygen.Generate(keygen.Type(keyType), bits)
	if err != nil {
		return err
	}
	if err := kp.WriteFiles(path); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Wrote %s and %s.pub\n", path, path)
	return nil
}

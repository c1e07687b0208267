// Package handlers implements the business logic of the fogprov commands.
//
// Each handler loads the configuration, opens the node store, builds a
// provisioner and runs one reconciler operation. Collaborators are created
// through package-level factory variables so tests can replace them.
package handlers

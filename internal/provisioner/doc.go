// Package provisioner reconciles node records with compute instances.
//
// Acquire decides between three outcomes for a node:
//
//   - reuse: an instance is recorded and running
//   - restart: an instance is recorded but stopped, so it is started once
//   - create: nothing is recorded, so an instance is created (or a single
//     unrecorded instance labelled for the node is adopted)
//
// A node records the provisioner URL it was acquired with. Every later
// operation with a different URL fails with ErrProviderMismatch before the
// compute API is contacted, so a node never moves between providers.
//
// The reconciler does not retry. Failures surface immediately and the node
// record is left for the caller to persist.
package provisioner

// Package labels builds the labels fogprov attaches to compute instances.
//
// Every instance carries the owning node's name and a digest of the
// provisioner identity. The labels let fogprov find instances it created
// even when the node record was never persisted.
package labels

// Package compute defines the contract between the reconciler and a cloud
// compute API, and the instance handle it returns.
package compute

// Package convergence installs and runs the configuration-management agent on
// acquired machines.
//
// InstallScript serves Unix instances and InstallMSI serves Windows ones. Both
// skip installation when the configured check command succeeds, and both
// remove the node's locally cached client key on Cleanup. Per-node
// convergence_options override the configured defaults.
package convergence

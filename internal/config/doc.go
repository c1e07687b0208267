// Package config loads the fogprov configuration file and environment
// driven timeouts.
//
// The file names the compute driver and carries its connection options as a
// free-form map. fogprov does not interpret those options; they are handed
// verbatim to the driver. The remaining sections configure the node store,
// the convergence strategy and per-node defaults.
package config

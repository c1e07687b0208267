// Package main is the entry point for the fogprov CLI.
//
// fogprov creates, reuses and destroys compute instances for named nodes and
// hands them to a configuration-management agent over SSH. Node records are
// kept in a node store (a directory or an S3 bucket) and carry the identity
// of the provider that created them.
//
// Commands: acquire, connect, destroy, list, keygen, version.
//
// For detailed usage information, run:
//
//	fogprov --help
package main

import (
	"fmt"
	"os"

	"github.com/imamik/fogprov/cmd/fogprov/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

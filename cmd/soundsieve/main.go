// Package main is the entry point for the soundsieve CLI.
//
// Usage:
//
//	soundsieve [flags] <command> [subcommand] [args]
//
// Commands:
//
//	feature    - Sound-feature management (create, list, rm)
//	separate   - Separate a sound from one or more mixture files
//	models     - Show the configured model files
//	version    - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/soundsieve/soundsieve/cmd/soundsieve/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command voxdocs is the entry point for the VoxDocs document assistant
// backend. It provides a CLI interface (via Cobra) and an HTTP server that
// powers PDF upload, document Q&A, and voice-room support endpoints.
package main

import (
	"fmt"
	"os"

	"github.com/voxdocs/voxdocs-go/cmd/voxdocs/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

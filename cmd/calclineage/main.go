// Package main provides the calclineage CLI.
package main

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/calclineage/internal/cli/commands"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	root := commands.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Package main is the entry point for the feedclean CLI.
package main

import (
	"os"

	"github.com/jmylchreest/feedclean/cmd/feedclean/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

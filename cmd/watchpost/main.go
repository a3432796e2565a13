// Package main provides the entry point for the watchpost CLI.
package main

import (
	"os"

	"github.com/watchpost/watchpost/cmd/watchpost/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

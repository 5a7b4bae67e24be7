// Package main is the entry point for the mfsql CLI.
package main

import (
	"os"

	"github.com/fastpath-labs/mfsql/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

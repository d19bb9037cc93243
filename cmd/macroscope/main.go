// Package main provides the macroscope CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/macroscope/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// Package main provides the movierank CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/movierank/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

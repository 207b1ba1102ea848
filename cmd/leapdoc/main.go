// Package main provides the leapdoc batch document generator CLI.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

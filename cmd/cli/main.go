// Package main is the entry point for the jewelcost CLI.
package main

import (
	"os"

	"jewelcost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

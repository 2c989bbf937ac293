// Package main is the entry point for the lexteams CLI.
package main

import (
	"os"

	"github.com/KafClaw/lexteams/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

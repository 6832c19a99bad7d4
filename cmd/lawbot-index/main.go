// Package main provides the entry point for the lawbot-index CLI.
package main

import (
	"os"

	"github.com/kailas-cloud/lawbot/cmd/lawbot-index/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/finora-dev/finora/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

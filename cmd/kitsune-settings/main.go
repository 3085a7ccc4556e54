package main

import (
	"fmt"
	"os"

	"github.com/kitsune-sumo/settings/internal/commands"
)

var version = "dev" // set during build

func main() {
	if err := commands.NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

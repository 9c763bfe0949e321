package main

import (
	"os"

	"braid/cmd/braid/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

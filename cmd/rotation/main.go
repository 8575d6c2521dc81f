package main

import (
	"os"

	"github.com/wonny/rotor/cmd/rotation/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"resume-enhancer/cmd/resumectl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"offertory/cmd/offertory/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

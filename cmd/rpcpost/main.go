package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	cmd := newRootCommand()

	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

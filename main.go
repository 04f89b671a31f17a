package main

import (
	"os"

	"github.com/dronershare/mobility/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

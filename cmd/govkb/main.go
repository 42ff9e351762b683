package main

import (
	"os"

	"github.com/govkb/govkb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/openkin/arbor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

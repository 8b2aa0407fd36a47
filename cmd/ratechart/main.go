package main

import (
	"os"

	"github.com/ratechart/ratechart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

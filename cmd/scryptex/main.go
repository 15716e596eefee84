package main

import (
	"os"

	"github.com/scryptex/scryptex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"os"

	"github.com/owid/lc-reconcile/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

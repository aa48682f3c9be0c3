// Package main is the entry point for the pathquery command.
package main

import (
	"os"

	"github.com/CageChen/pathquery/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

// Package main is the entry point for the phpbuild CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/phpbuild/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}

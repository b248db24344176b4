package main

import (
	"os"

	"github.com/luminahq/lumina/internal/cli"
)

func main() {
	cli.Run(os.Stdin, os.Stdout)
}

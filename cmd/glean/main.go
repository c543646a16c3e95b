package main

import (
	"os"

	"github.com/dshills/glean/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

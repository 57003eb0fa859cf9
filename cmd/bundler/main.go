package main

import (
	"os"

	"github.com/ledgerkit/bundler/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

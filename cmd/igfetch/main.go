package main

import (
	"os"

	"github.com/ycchou/igfetch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

package main

import (
	"os"

	"github.com/iterate-binary-hack/submitdiff/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}

package main

import (
	"fmt"
	"os"

	"github.com/kent-id/peerwire"
	"github.com/kent-id/peerwire/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	_ = peerwire.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

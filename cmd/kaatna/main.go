package main

import (
	"os"

	"github.com/mgpai22/kaatna/internal/cli"
	"github.com/mgpai22/kaatna/internal/faults"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(faults.ExitCode(err))
	}
}

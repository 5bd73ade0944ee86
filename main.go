package main

import (
	"os"

	"github.com/spigell/job-triage/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cchalm/agent-chat/app/agent-chat/cmd"
)

// Version information set by ldflags during build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	cmd.SetVersionInfo(Version, GitCommit, BuildTime)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cmd.ErrInterrupted) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

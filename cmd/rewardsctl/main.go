package main

import (
	"fmt"
	"os"

	appcli "rewards/internal/cli"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
)

func main() {
	appcli.LoadEnvFile()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

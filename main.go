package main

import (
	"context"
	"fmt"
	"os"

	"github.com/biblehabit/tracker/internal/cli"
	"github.com/biblehabit/tracker/internal/config"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading .env: %v\n", err)
		os.Exit(1)
	}

	if err := cli.Execute(context.Background(), Version+" ("+Commit+")"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

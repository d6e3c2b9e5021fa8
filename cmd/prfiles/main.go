// Package main is the entry point for the prfiles application.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chmouel/prfiles/internal/buildinfo"
	urfavecli "github.com/urfave/cli/v3"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	buildinfo.Set(version, commit, date, builtBy)
	buildinfo.Enrich()

	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "prfiles",
		Usage:     "Pick among the files changed on the current branch",
		ArgsUsage: "[KEYWORDS...]",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Commands: []*urfavecli.Command{
			listCommand(),
		},
		Action:                runDefault,
		EnableShellCompletion: true,
		ShellComplete:         completeRoot,
	}
}

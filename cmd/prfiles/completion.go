package main

import (
	"context"
	"fmt"
	"os"

	"github.com/chmouel/prfiles/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
)

// configKeys lists the keys accepted by --config prfiles.key=value.
var configKeys = []string{"debug_log", "editor", "max_results", "print_selection", "show_icons", "theme"}

// completeRoot completes flag values the default completer cannot know about.
func completeRoot(_ context.Context, cmd *urfavecli.Command) {
	if values := valueSuggestions(os.Args); values != nil {
		for _, value := range values {
			_, _ = fmt.Fprintln(stdout(cmd), value)
		}
		return
	}
	for _, sub := range cmd.Commands {
		_, _ = fmt.Fprintln(stdout(cmd), sub.Name)
	}
	outputFlags(cmd)
}

// outputFlags prints every visible flag in "--name:usage" completion format.
func outputFlags(cmd *urfavecli.Command) {
	for _, flag := range cmd.Flags {
		if bf, ok := flag.(*urfavecli.BoolFlag); ok && bf.Hidden {
			continue
		}
		if sf, ok := flag.(*urfavecli.StringFlag); ok && sf.Hidden {
			continue
		}
		name := flag.Names()[0]
		prefix := "--"
		if len(name) == 1 {
			prefix = "-"
		}
		usage := ""
		if df, ok := flag.(urfavecli.DocGenerationFlag); ok {
			usage = df.GetUsage()
		}
		if usage != "" {
			_, _ = fmt.Fprintf(stdout(cmd), "%s%s:%s\n", prefix, name, usage)
			continue
		}
		_, _ = fmt.Fprintf(stdout(cmd), "%s%s\n", prefix, name)
	}
}

// valueSuggestions returns completions for the value of the flag being completed.
// The shell appends --generate-shell-completion, so the word before it is the flag.
func valueSuggestions(args []string) []string {
	if len(args) < 2 {
		return nil
	}
	switch args[len(args)-2] {
	case "--theme", "-t":
		return theme.AvailableThemes()
	case "--config", "-C":
		out := make([]string, len(configKeys))
		for i, key := range configKeys {
			out[i] = "prfiles." + key + "="
		}
		return out
	}
	return nil
}

package main

import (
	urfavecli "github.com/urfave/cli/v3"
)

// globalFlags returns the flags shared by the picker and the list subcommand.
// --version is provided by urfave/cli through Command.Version.
func globalFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.StringFlag{
			Name:  "dir",
			Usage: "Directory to resolve the change set from (defaults to the current directory)",
		},
		&urfavecli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Initial filter keywords",
		},
		&urfavecli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&urfavecli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Override the UI theme",
		},
		&urfavecli.BoolFlag{
			Name:  "print",
			Usage: "Print the selected path instead of opening it",
		},
		&urfavecli.StringFlag{
			Name:  "output-selection",
			Usage: "Write the selected path to a file instead of opening it",
		},
		&urfavecli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&urfavecli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=prfiles.key=value",
		},
	}
}

func listFlags() []urfavecli.Flag {
	return []urfavecli.Flag{
		&urfavecli.BoolFlag{
			Name:  "scores",
			Usage: "Prefix each path with its score and a tab",
		},
		&urfavecli.BoolFlag{
			Name:  "absolute",
			Usage: "Print absolute paths",
		},
	}
}

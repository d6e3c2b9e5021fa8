package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/chmouel/prfiles/internal/app"
	"github.com/chmouel/prfiles/internal/changeset"
	"github.com/chmouel/prfiles/internal/config"
	"github.com/chmouel/prfiles/internal/fuzzy"
	"github.com/chmouel/prfiles/internal/git"
	"github.com/chmouel/prfiles/internal/log"
	"github.com/chmouel/prfiles/internal/theme"
	urfavecli "github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var (
	newResolverFunc = newResolver
	isTerminalFunc  = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	runProgramFunc  = runProgram
)

func newResolver() (app.ChangeSetResolver, error) {
	if !git.Available() {
		return nil, errors.New("git executable not found in PATH")
	}
	return changeset.NewResolver(git.NewService()), nil
}

func runProgram(model *app.Model) error {
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	model.Close()
	return err
}

// listCommand returns the list subcommand definition.
func listCommand() *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "Print the changed files, ranked when keywords are given",
		ArgsUsage: "[KEYWORDS...]",
		Flags:     listFlags(),
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			cfg, dir, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			return runList(ctx, cmd, cfg, dir, listKeywords(cmd), cmd.Bool("scores"), cmd.Bool("absolute"))
		},
	}
}

// runDefault launches the picker, or prints the list when stdout is not a terminal.
func runDefault(ctx context.Context, cmd *urfavecli.Command) error {
	cfg, dir, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	if !isTerminalFunc() {
		log.Printf("stdout is not a terminal, listing instead")
		return runList(ctx, cmd, cfg, dir, listKeywords(cmd), false, false)
	}
	return runTUI(cmd, cfg, dir)
}

func runTUI(cmd *urfavecli.Command, cfg *config.AppConfig, dir string) error {
	resolver, err := newResolverFunc()
	if err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(append([]string{cmd.String("query")}, cmd.Args().Slice()...), " "))
	model := app.NewModel(cfg, resolver, dir, query)
	if err := runProgramFunc(model); err != nil {
		return fmt.Errorf("error running app: %w", err)
	}
	if err := model.Err(); err != nil {
		return err
	}

	selected := model.SelectedPath()
	if outputSelection := cmd.String("output-selection"); outputSelection != "" {
		return writeOutputSelection(outputSelection, selected)
	}
	if selected != "" && cfg.PrintSelection {
		_, _ = fmt.Fprintln(stdout(cmd), selected)
	}
	return nil
}

// runList resolves the change set once and prints it, one path per line.
func runList(ctx context.Context, cmd *urfavecli.Command, cfg *config.AppConfig, dir string, keywords []string, scores, absolute bool) error {
	resolver, err := newResolverFunc()
	if err != nil {
		return err
	}
	result, err := resolver.Resolve(ctx, dir)
	if err != nil {
		return err
	}

	var matches []fuzzy.Match
	if len(keywords) == 0 {
		matches = make([]fuzzy.Match, len(result.Files))
		for i, path := range result.Files {
			matches[i] = fuzzy.Match{Path: path}
		}
	} else {
		matches = fuzzy.RankMatches(result.Files, keywords)
	}
	if cfg.MaxResults > 0 && len(matches) > cfg.MaxResults {
		matches = matches[:cfg.MaxResults]
	}

	out := stdout(cmd)
	for _, match := range matches {
		path := match.Path
		if absolute {
			path = filepath.Join(result.Root, path)
		}
		if scores {
			_, _ = fmt.Fprintf(out, "%s\t%s\n", strconv.FormatFloat(match.Score, 'f', -1, 64), path)
			continue
		}
		_, _ = fmt.Fprintln(out, path)
	}
	return nil
}

func listKeywords(cmd *urfavecli.Command) []string {
	return fuzzy.Keywords(strings.Join(append([]string{cmd.String("query")}, cmd.Args().Slice()...), " "))
}

// loadRuntime sets up debug logging and builds the effective configuration.
func loadRuntime(cmd *urfavecli.Command) (*config.AppConfig, string, error) {
	debugLog := cmd.String("debug-log")
	if debugLog != "" {
		openDebugLog(debugLog)
	}

	dir, err := resolveDir(cmd.String("dir"))
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.LoadConfig(cmd.String("config-file"), dir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr(cmd), "Error loading config: %v\n", err)
	}

	if debugLog == "" {
		if cfg.DebugLog != "" {
			openDebugLog(cfg.DebugLog)
		} else {
			// No debug log configured, discard any buffered logs
			_ = log.SetFile("")
		}
	}

	if err := applyThemeConfig(cfg, cmd.String("theme")); err != nil {
		closeLog()
		return nil, "", err
	}
	if overrides := cmd.StringSlice("config"); len(overrides) > 0 {
		if err := cfg.ApplyCLIOverrides(overrides); err != nil {
			closeLog()
			return nil, "", fmt.Errorf("error applying config overrides: %w", err)
		}
	}
	if cmd.Bool("print") || cmd.String("output-selection") != "" {
		cfg.PrintSelection = true
	}

	log.Printf("dir=%s theme=%s editor=%q print=%t max_results=%d", dir, cfg.Theme, cfg.EditorCommand(), cfg.PrintSelection, cfg.MaxResults)
	return cfg, dir, nil
}

func openDebugLog(path string) {
	if expanded, err := config.ExpandPath(path); err == nil {
		path = expanded
	}
	if err := log.SetFile(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening debug log file %q: %v\n", path, err)
	}
}

func closeLog() {
	if err := log.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing debug log: %v\n", err)
	}
}

func resolveDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}
	expanded, err := config.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("error expanding dir: %w", err)
	}
	return filepath.Abs(expanded)
}

// applyThemeConfig applies the --theme flag.
func applyThemeConfig(cfg *config.AppConfig, themeName string) error {
	if themeName == "" {
		return nil
	}
	normalized := theme.Normalize(themeName)
	if normalized == "" {
		return fmt.Errorf("unknown theme %q (available: %s)", themeName, strings.Join(theme.AvailableThemes(), ", "))
	}
	cfg.Theme = normalized
	return nil
}

func writeOutputSelection(target, selected string) error {
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return fmt.Errorf("error expanding output-selection: %w", err)
	}
	const defaultDirPerms = 0o750
	if err := os.MkdirAll(filepath.Dir(expanded), defaultDirPerms); err != nil {
		return fmt.Errorf("error creating output-selection dir: %w", err)
	}
	data := ""
	if selected != "" {
		data = selected + "\n"
	}
	const defaultFilePerms = 0o600
	if err := os.WriteFile(expanded, []byte(data), defaultFilePerms); err != nil {
		return fmt.Errorf("error writing output-selection: %w", err)
	}
	return nil
}

func stdout(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func stderr(cmd *urfavecli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}

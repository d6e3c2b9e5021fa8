// Package app implements the interactive file picker.
package app

import (
	"context"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chmouel/prfiles/internal/changeset"
	"github.com/chmouel/prfiles/internal/config"
	"github.com/chmouel/prfiles/internal/fuzzy"
	"github.com/chmouel/prfiles/internal/log"
	"github.com/chmouel/prfiles/internal/theme"
)

const (
	placeholderText = "Select a file or type keywords"
	emptyText       = "No changed files found."
	noMatchText     = "No matching files."

	minListHeight = 3
)

// CommandRunner builds the command used to launch external programs.
type CommandRunner func(ctx context.Context, name string, args ...string) *exec.Cmd

// ChangeSetResolver resolves the candidate files shown in the picker.
type ChangeSetResolver interface {
	Resolve(ctx context.Context, cwd string) (*changeset.Result, error)
}

type viewState int

const (
	stateLoading viewState = iota
	stateReady
	stateEmpty
	stateError
)

// Model is the bubbletea model of the picker.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg      *config.AppConfig
	thm      *theme.Theme
	resolver ChangeSetResolver
	cwd      string

	state   viewState
	spinner spinner.Model
	input   textinput.Model

	result   *changeset.Result
	filtered []string
	cursor   int
	offset   int
	width    int
	height   int

	err      error
	status   string
	selected string
	quitting bool

	commandRunner CommandRunner
	execProcess   func(*exec.Cmd, tea.ExecCallback) tea.Cmd
}

// NewModel creates the picker. initialQuery pre-fills the filter input.
func NewModel(cfg *config.AppConfig, resolver ChangeSetResolver, cwd, initialQuery string) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	thm := theme.GetTheme(cfg.Theme)
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(thm.Accent)

	ti := textinput.New()
	ti.Placeholder = placeholderText
	ti.Prompt = "> "
	ti.CharLimit = 200
	ti.PromptStyle = lipgloss.NewStyle().Foreground(thm.Accent)
	ti.TextStyle = lipgloss.NewStyle().Foreground(thm.TextFg)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(thm.MutedFg)
	ti.SetValue(initialQuery)
	ti.Focus()

	return &Model{
		ctx:           ctx,
		cancel:        cancel,
		cfg:           cfg,
		thm:           thm,
		resolver:      resolver,
		cwd:           cwd,
		state:         stateLoading,
		spinner:       sp,
		input:         ti,
		cursor:        -1,
		width:         80,
		height:        24,
		commandRunner: exec.CommandContext,
		execProcess:   tea.ExecProcess,
	}
}

// Init starts the change-set resolution.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.resolveCmd(), textinput.Blink)
}

func (m *Model) resolveCmd() tea.Cmd {
	ctx, resolver, cwd := m.ctx, m.resolver, m.cwd
	return func() tea.Msg {
		result, err := resolver.Resolve(ctx, cwd)
		return resolvedMsg{result: result, err: err}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, m.width-6)
		m.clampOffset()
		return m, nil

	case spinner.TickMsg:
		if m.state != stateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		return m, m.handleResolved(msg)

	case editorFinishedMsg:
		if msg.err != nil {
			log.Printf("editor failed for %s: %v", msg.path, msg.err)
			m.status = "Failed to open " + msg.path + ": " + msg.err.Error()
			return m, nil
		}
		m.selected = msg.path
		return m, m.quit()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleResolved(msg resolvedMsg) tea.Cmd {
	if msg.err != nil {
		log.Printf("resolve failed: %v", msg.err)
		m.err = msg.err
		m.state = stateError
		return nil
	}
	m.result = msg.result
	if len(m.result.Files) == 0 {
		m.state = stateEmpty
		return nil
	}
	m.state = stateReady
	m.applyFilter()
	return nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	keyStr := msg.String()
	if keyStr == "ctrl+c" {
		return m.quit()
	}

	switch m.state {
	case stateLoading:
		if keyStr == "esc" {
			return m.quit()
		}
		return nil
	case stateEmpty, stateError:
		return m.quit()
	}

	switch keyStr {
	case "esc":
		return m.quit()
	case "enter":
		return m.selectCurrent()
	case "up", "ctrl+p", "ctrl+k":
		m.moveCursor(-1)
		return nil
	case "down", "ctrl+n", "ctrl+j":
		m.moveCursor(1)
		return nil
	case "pgup":
		m.moveCursor(-m.listHeight())
		return nil
	case "pgdown":
		m.moveCursor(m.listHeight())
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.status = ""
		m.applyFilter()
	}
	return cmd
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.cancel()
	return tea.Quit
}

// applyFilter re-ranks the resolved files against the current input.
func (m *Model) applyFilter() {
	if m.result == nil {
		return
	}
	m.filtered = fuzzy.Rank(m.result.Files, fuzzy.Keywords(m.input.Value()))
	if limit := m.cfg.MaxResults; limit > 0 && len(m.filtered) > limit {
		m.filtered = m.filtered[:limit]
	}

	m.offset = 0
	if len(m.filtered) == 0 {
		m.cursor = -1
		return
	}
	m.cursor = 0
}

func (m *Model) moveCursor(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.filtered)-1)
	m.clampOffset()
}

func (m *Model) clampOffset() {
	visible := m.listHeight()
	if m.cursor < m.offset {
		m.offset = max(m.cursor, 0)
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *Model) selectCurrent() tea.Cmd {
	path, ok := m.Current()
	if !ok {
		return nil
	}
	abs := filepath.Join(m.result.Root, path)
	if m.cfg.PrintSelection {
		m.selected = abs
		return m.quit()
	}
	return m.openInEditor(abs)
}

// Current returns the highlighted repository-relative path.
func (m *Model) Current() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return "", false
	}
	return m.filtered[m.cursor], true
}

// SelectedPath returns the absolute path chosen by the user, empty when the picker
// was cancelled.
func (m *Model) SelectedPath() string {
	return m.selected
}

// Err returns the resolution error, if any.
func (m *Model) Err() error {
	return m.err
}

// Close cancels any in-flight git queries.
func (m *Model) Close() {
	m.cancel()
}

package app

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chmouel/prfiles/internal/changeset"
	"github.com/chmouel/prfiles/internal/config"
)

type fakeResolver struct {
	result *changeset.Result
	err    error
	gotCwd string
}

func (f *fakeResolver) Resolve(_ context.Context, cwd string) (*changeset.Result, error) {
	f.gotCwd = cwd
	return f.result, f.err
}

type recordedCommand struct {
	name string
	args []string
	dir  string
}

type commandRecorder struct {
	execs []recordedCommand
}

func (r *commandRecorder) runner(_ context.Context, name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

func (r *commandRecorder) exec(cmd *exec.Cmd, _ tea.ExecCallback) tea.Cmd {
	r.execs = append(r.execs, recordedCommand{
		name: cmd.Args[0],
		args: append([]string{}, cmd.Args[1:]...),
		dir:  cmd.Dir,
	})
	return func() tea.Msg { return nil }
}

func testConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.Theme = "dracula"
	cfg.ShowIcons = false
	return cfg
}

func newReadyModel(t *testing.T, cfg *config.AppConfig, root string, files ...string) *Model {
	t.Helper()
	m := NewModel(cfg, &fakeResolver{}, root, "")
	m.Update(resolvedMsg{result: &changeset.Result{
		Root:          root,
		CurrentBranch: "feature",
		DefaultBranch: "main",
		Files:         files,
	}})
	require.Equal(t, stateReady, m.state)
	return m
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNewModel(t *testing.T) {
	m := NewModel(testConfig(), &fakeResolver{}, "/repo", "api")

	assert.Equal(t, stateLoading, m.state)
	assert.Equal(t, placeholderText, m.input.Placeholder)
	assert.Equal(t, "api", m.input.Value())
	assert.True(t, m.input.Focused())
	assert.Equal(t, -1, m.cursor)
	assert.Contains(t, m.View(), "Resolving changed files")
}

func TestNewModelNilConfig(t *testing.T) {
	m := NewModel(nil, &fakeResolver{}, "/repo", "")
	require.NotNil(t, m.cfg)
	assert.True(t, m.cfg.ShowIcons)
}

func TestResolveCmdUsesWorkingDirectory(t *testing.T) {
	resolver := &fakeResolver{result: &changeset.Result{Root: "/repo", Files: []string{"a.go"}}}
	m := NewModel(testConfig(), resolver, "/repo/sub", "")

	msg := m.resolveCmd()()
	resolved, ok := msg.(resolvedMsg)
	require.True(t, ok)
	require.NoError(t, resolved.err)
	assert.Equal(t, "/repo/sub", resolver.gotCwd)
	assert.Equal(t, []string{"a.go"}, resolved.result.Files)
}

func TestResolvedShowsFilesInOrder(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "b.go", "a.go", "docs/c.md")

	assert.Equal(t, []string{"b.go", "a.go", "docs/c.md"}, m.filtered)
	assert.Equal(t, 0, m.cursor)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "feature ← main")
	assert.Contains(t, view, "docs/c.md")
	assert.Contains(t, view, "3/3")
}

func TestInitialQueryIsAppliedOnResolve(t *testing.T) {
	m := NewModel(testConfig(), &fakeResolver{}, "/repo", "readme")
	m.Update(resolvedMsg{result: &changeset.Result{Root: "/repo", Files: []string{"main.go", "README.md"}}})

	assert.Equal(t, []string{"README.md"}, m.filtered)
}

func TestResolvedEmpty(t *testing.T) {
	m := NewModel(testConfig(), &fakeResolver{}, "/repo", "")
	m.Update(resolvedMsg{result: &changeset.Result{Root: "/repo"}})

	assert.Equal(t, stateEmpty, m.state)
	assert.Contains(t, m.View(), emptyText)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}

func TestResolvedError(t *testing.T) {
	m := NewModel(testConfig(), &fakeResolver{}, "/repo", "")
	m.Update(resolvedMsg{err: &changeset.NoDefaultBranchError{Tried: []string{"main", "master"}}})

	assert.Equal(t, stateError, m.state)
	var target *changeset.NoDefaultBranchError
	assert.ErrorAs(t, m.Err(), &target)
	assert.Contains(t, ansi.Strip(m.View()), "Error: no local main or master branch found")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}

func TestTypingReRanks(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "src/app.ts", "README.md", "lib/apply.go")

	typeText(m, "app")
	assert.Equal(t, []string{"lib/apply.go", "src/app.ts"}, m.filtered)
	assert.Equal(t, 0, m.cursor)

	typeText(m, " zzz")
	assert.Equal(t, []string{"lib/apply.go", "src/app.ts"}, m.filtered, "a keyword matching nothing adds zero")

	m.input.SetValue("qqq")
	m.applyFilter()
	assert.Empty(t, m.filtered)
	assert.Equal(t, -1, m.cursor)
	assert.Contains(t, m.View(), noMatchText)

	m.input.SetValue("")
	m.applyFilter()
	assert.Equal(t, []string{"src/app.ts", "README.md", "lib/apply.go"}, m.filtered)
}

func TestTypingClearsStatus(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go")
	m.status = "Cannot open a.go"

	typeText(m, "a")
	assert.Empty(t, m.status)
}

func TestMaxResults(t *testing.T) {
	cfg := testConfig()
	cfg.MaxResults = 2
	m := newReadyModel(t, cfg, "/repo", "a.go", "b.go", "c.go")

	assert.Equal(t, []string{"a.go", "b.go"}, m.filtered)
}

func TestCursorMovement(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go", "b.go", "c.go")

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, 2, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "b.go", current)
}

func TestScrollKeepsCursorVisible(t *testing.T) {
	files := make([]string, 20)
	for i := range files {
		files[i] = string(rune('a'+i)) + ".go"
	}
	m := newReadyModel(t, testConfig(), "/repo", files...)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: chromeHeight + 5})

	for range 7 {
		m.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 7, m.cursor)
	assert.Equal(t, 3, m.offset)

	m.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, 2, m.offset)
}

func TestEscQuitsAndCancels(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Empty(t, m.SelectedPath())
	require.ErrorIs(t, m.ctx.Err(), context.Canceled)
	assert.Empty(t, m.View())
}

func TestLoadingIgnoresKeysButCtrlC(t *testing.T) {
	m := NewModel(testConfig(), &fakeResolver{}, "/repo", "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
}

func TestEnterPrintsSelection(t *testing.T) {
	cfg := testConfig()
	cfg.PrintSelection = true
	m := newReadyModel(t, cfg, "/repo", "a.go", "pkg/b.go")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, filepath.Join("/repo", "pkg/b.go"), m.SelectedPath())
}

func TestEnterWithNoMatchDoesNothing(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go")
	typeText(m, "zzz")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)
}

func TestEnterOpensEditor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "it's.go"), []byte("package src\n"), 0o600))

	cfg := testConfig()
	cfg.Editor = "nvim"
	m := newReadyModel(t, cfg, root, "src/it's.go")
	recorder := &commandRecorder{}
	m.commandRunner = recorder.runner
	m.execProcess = recorder.exec

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	_ = cmd()

	require.Len(t, recorder.execs, 1)
	got := recorder.execs[0]
	assert.Equal(t, "bash", got.name)
	require.Len(t, got.args, 2)
	assert.Equal(t, "-c", got.args[0])
	assert.Equal(t, "nvim "+shellQuote(filepath.Join(root, "src", "it's.go")), got.args[1])
	assert.Equal(t, root, got.dir)
	assert.False(t, m.quitting)

	_, cmd = m.Update(editorFinishedMsg{path: filepath.Join(root, "src", "it's.go")})
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Equal(t, filepath.Join(root, "src", "it's.go"), m.SelectedPath())
}

func TestEditorFailureIsReported(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go")

	_, cmd := m.Update(editorFinishedMsg{path: "/repo/a.go", err: errors.New("exit status 127")})
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)
	assert.Contains(t, m.status, "Failed to open /repo/a.go")
	assert.Contains(t, ansi.Strip(m.View()), "exit status 127")
}

func TestOpenMissingFileShowsStatus(t *testing.T) {
	root := t.TempDir()
	m := newReadyModel(t, testConfig(), root, "gone.go")
	recorder := &commandRecorder{}
	m.commandRunner = recorder.runner
	m.execProcess = recorder.exec

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, recorder.execs)
	assert.True(t, strings.HasPrefix(m.status, "Cannot open "))
	assert.False(t, m.quitting)
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, "'a b.go'", shellQuote("a b.go"))
	assert.Equal(t, `'it'"'"'s.go'`, shellQuote("it's.go"))
}

func TestRenderPath(t *testing.T) {
	m := newReadyModel(t, testConfig(), "/repo", "a.go")

	assert.Equal(t, "src/app/main.go", ansi.Strip(m.renderPath("src/app/main.go", 0)))
	assert.Equal(t, "main.go", ansi.Strip(m.renderPath("main.go", 0)))

	truncated := ansi.Strip(m.renderPath("very/long/directory/name/file.go", 10))
	assert.LessOrEqual(t, ansi.StringWidth(truncated), 10)
	assert.True(t, strings.HasSuffix(truncated, "…"))

	m.cfg.ShowIcons = true
	withIcon := ansi.Strip(m.renderPath("main.go", 0))
	assert.True(t, strings.HasSuffix(withIcon, " main.go"))
}

func TestIconFileInfo(t *testing.T) {
	info := iconFileInfo{name: "main.go"}
	assert.Equal(t, "main.go", info.Name())
	assert.False(t, info.IsDir())
	assert.Zero(t, info.Size())
	assert.Nil(t, info.Sys())
	assert.Empty(t, fileIcon(""))
	assert.Empty(t, iconWithSpace(""))
	assert.Equal(t, "x ", iconWithSpace("x"))
}

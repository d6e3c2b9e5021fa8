package app

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chmouel/prfiles/internal/log"
)

// openInEditor suspends the picker and runs the configured editor on path.
func (m *Model) openInEditor(path string) tea.Cmd {
	if _, err := os.Stat(path); err != nil {
		m.status = fmt.Sprintf("Cannot open %s: %v", path, err)
		return nil
	}

	editor := m.cfg.EditorCommand()
	cmdStr := fmt.Sprintf("%s %s", editor, shellQuote(path))
	log.Printf("open: %s", cmdStr)

	// #nosec G204 -- command is constructed from user config and a quoted path
	c := m.commandRunner(m.ctx, "bash", "-c", cmdStr)
	c.Dir = m.result.Root
	c.Env = os.Environ()

	return m.execProcess(c, func(err error) tea.Msg {
		return editorFinishedMsg{path: path, err: err}
	})
}

func shellQuote(input string) string {
	if input == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(input, "'", "'\"'\"'") + "'"
}

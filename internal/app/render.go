package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/reflow/truncate"
)

// chromeHeight is the number of rows taken by everything but the file list.
const chromeHeight = 9

func (m *Model) listHeight() int {
	return max(m.height-chromeHeight, minListHeight)
}

func (m *Model) boxWidth() int {
	return max(m.width-2, 40)
}

// View renders the picker.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.boxWidth()
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.thm.Accent).
		Width(width).
		Padding(0)

	var content string
	switch m.state {
	case stateLoading:
		content = m.renderMessage(m.spinner.View()+" Resolving changed files…", m.thm.TextFg)
	case stateEmpty:
		content = m.renderMessage(emptyText+"\n\nPress any key to exit", m.thm.MutedFg)
	case stateError:
		content = m.renderMessage(fmt.Sprintf("Error: %v\n\nPress any key to exit", m.err), m.thm.ErrorFg)
	default:
		content = m.renderList()
	}

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, m.renderTitle(), content))
}

func (m *Model) renderTitle() string {
	title := "Changed files"
	if m.result != nil && m.result.CurrentBranch != "" {
		title = fmt.Sprintf("Changed files  %s ← %s", m.result.CurrentBranch, m.result.DefaultBranch)
	}
	return lipgloss.NewStyle().
		Foreground(m.thm.Accent).
		Bold(true).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(m.thm.BorderDim).
		Width(m.boxWidth()-2).
		Padding(0, 1).
		Render(title)
}

func (m *Model) renderMessage(text string, color lipgloss.Color) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Padding(1, 1).
		Width(m.boxWidth() - 2).
		Render(text)
}

func (m *Model) renderList() string {
	width := m.boxWidth()
	inner := width - 2

	inputView := lipgloss.NewStyle().
		Padding(0, 1).
		Width(inner).
		Render(m.input.View())

	separator := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(m.thm.BorderDim).
		Width(inner).
		Render("")

	itemStyle := lipgloss.NewStyle().Padding(0, 1).Width(inner)
	selectedStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Width(inner).
		Background(m.thm.Accent).
		Foreground(m.thm.AccentFg).
		Bold(true)

	var rows []string
	visible := m.listHeight()
	end := min(m.offset+visible, len(m.filtered))
	for i := m.offset; i < end; i++ {
		label := m.renderPath(m.filtered[i], inner-2)
		if i == m.cursor {
			rows = append(rows, selectedStyle.Render(ansi.Strip(label)))
			continue
		}
		rows = append(rows, itemStyle.Render(label))
	}
	if len(m.filtered) == 0 {
		rows = append(rows, lipgloss.NewStyle().
			Padding(0, 1).
			Width(inner).
			Foreground(m.thm.MutedFg).
			Italic(true).
			Render(noMatchText))
	}
	for len(rows) < visible {
		rows = append(rows, "")
	}

	lines := []string{inputView, separator, strings.Join(rows, "\n"), m.renderFooter(inner)}
	if m.status != "" {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(m.thm.ErrorFg).
			Padding(0, 1).
			Width(inner).
			Render(truncate.StringWithTail(m.status, uint(max(inner-2, 1)), "…")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderPath renders one row: icon, muted directory, then the file name.
func (m *Model) renderPath(path string, maxWidth int) string {
	dir, base := "", path
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		dir, base = path[:idx+1], path[idx+1:]
	}

	prefix := ""
	if m.cfg.ShowIcons {
		prefix = iconWithSpace(fileIcon(base))
	}

	label := prefix +
		lipgloss.NewStyle().Foreground(m.thm.MutedFg).Render(dir) +
		lipgloss.NewStyle().Foreground(m.thm.TextFg).Render(base)
	if maxWidth > 0 && ansi.StringWidth(label) > maxWidth {
		label = truncate.StringWithTail(label, uint(maxWidth), "…")
	}
	return label
}

func (m *Model) renderFooter(width int) string {
	total := 0
	if m.result != nil {
		total = len(m.result.Files)
	}
	counter := lipgloss.NewStyle().
		Foreground(m.thm.MatchFg).
		Render(fmt.Sprintf("%d/%d", len(m.filtered), total))
	action := "open"
	if m.cfg.PrintSelection {
		action = "select"
	}
	hints := lipgloss.NewStyle().
		Foreground(m.thm.MutedFg).
		Render("↑/↓ to move • Enter to " + action + " • Esc to cancel")

	gap := max(width-2-lipgloss.Width(counter)-lipgloss.Width(hints), 1)
	return lipgloss.NewStyle().
		Padding(1, 1, 0, 1).
		Width(width).
		Render(counter + strings.Repeat(" ", gap) + hints)
}

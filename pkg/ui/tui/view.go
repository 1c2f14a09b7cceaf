package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the title, status, progress bar and tweet preview
func (m *Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render(m.title))
	sections = append(sections, m.renderStatus())
	sections = append(sections, fmt.Sprintf("%s %d/%d tweets", m.bar.ViewAs(m.ratio()), m.acc.Len(), m.target))

	if preview := m.renderPreview(); preview != "" {
		sections = append(sections, panelStyle.Render(preview))
	}

	if m.done {
		sections = append(sections, helpStyle.Render("finished, press q to exit"))
	} else {
		sections = append(sections, helpStyle.Render("q: stop"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m *Model) renderStatus() string {
	switch {
	case m.acc.Err() != "":
		return errorStyle.Render("✗ " + m.acc.Err())
	case m.streamErr != nil:
		return errorStyle.Render("✗ " + m.streamErr.Error())
	case m.acc.Completed():
		return successStyle.Render("✓ " + m.acc.Status())
	}

	status := m.acc.Status()
	if status == "" {
		status = "Connecting..."
	}
	elapsed := time.Since(m.started).Truncate(time.Second)
	return fmt.Sprintf("%s %s %s", m.spinner.View(), statusStyle.Render(status), dimStyle.Render(elapsed.String()))
}

func (m *Model) renderPreview() string {
	items := m.acc.Preview(PreviewSize)
	if len(items) == 0 {
		return ""
	}

	width := 70
	if m.width > 20 && m.width-8 < width {
		width = m.width - 8
	}

	lines := make([]string, 0, len(items))
	for i, item := range items {
		text := []rune(strings.ReplaceAll(item.Text, "\n", " "))
		if len(text) > width {
			text = append(text[:width-3], []rune("...")...)
		}
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, string(text)))
	}
	return strings.Join(lines, "\n")
}

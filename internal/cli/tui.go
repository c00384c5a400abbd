package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/tessera/pkg/layout"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// WidgetPickerModel is the bubbletea model for choosing a widget to place
// in a layout cell. The last entry clears the cell.
type WidgetPickerModel struct {
	Layout  string
	Widgets []string
	Names   map[string]string
	Cursor  int
	Height  int
	Offset  int

	// Selected is nil until the user confirms a choice.
	Selected *string
}

// NewWidgetPickerModel lists widgets followed by the empty choice.
func NewWidgetPickerModel(layoutKey string, widgets []string, names map[string]string) WidgetPickerModel {
	items := append(append([]string(nil), widgets...), layout.Empty)
	return WidgetPickerModel{
		Layout:  layoutKey,
		Widgets: items,
		Names:   names,
		Height:  15,
	}
}

func (m WidgetPickerModel) Init() tea.Cmd {
	return nil
}

func (m WidgetPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Widgets)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			w := m.Widgets[m.Cursor]
			m.Selected = &w
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m WidgetPickerModel) label(w string) string {
	if w == layout.Empty {
		return "(empty cell)"
	}
	if name := m.Names[w]; name != "" && name != w {
		return fmt.Sprintf("%-20s %s", w, listDimStyle.Render(name))
	}
	return w
}

func (m WidgetPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select widget for " + m.Layout))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Widgets))
	for i := m.Offset; i < end; i++ {
		w := m.Widgets[i]
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + m.label(w)))
		} else if w == layout.Empty {
			b.WriteString(listDimStyle.Render("  " + m.label(w)))
		} else {
			b.WriteString(listNormalStyle.Render("  " + m.label(w)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Widgets))))
	return b.String()
}

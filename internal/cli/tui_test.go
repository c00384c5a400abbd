package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m WidgetPickerModel, keys ...tea.KeyMsg) (WidgetPickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(WidgetPickerModel)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyUp    = tea.KeyMsg{Type: tea.KeyUp}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestWidgetPickerSelect(t *testing.T) {
	m := NewWidgetPickerModel("main", []string{"controller", "page"}, nil)

	m, cmd := press(m, keyDown, keyEnter)
	if cmd == nil {
		t.Error("enter should quit the picker")
	}
	if m.Selected == nil || *m.Selected != "page" {
		t.Errorf("Selected = %v, want page", m.Selected)
	}
}

func TestWidgetPickerEmptyChoice(t *testing.T) {
	m := NewWidgetPickerModel("main", []string{"page"}, nil)

	m, _ = press(m, keyDown, keyDown, keyDown, keyEnter)
	if m.Selected == nil || *m.Selected != "" {
		t.Errorf("Selected = %v, want the empty widget", m.Selected)
	}
}

func TestWidgetPickerBounds(t *testing.T) {
	m := NewWidgetPickerModel("main", []string{"a", "b"}, nil)

	m, _ = press(m, keyUp, keyUp)
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d after moving up at top, want 0", m.Cursor)
	}

	m.Height = 1
	m, _ = press(m, keyDown, keyDown)
	if m.Cursor != 2 || m.Offset != 2 {
		t.Errorf("Cursor, Offset = %d, %d, want 2, 2", m.Cursor, m.Offset)
	}
}

func TestWidgetPickerCancel(t *testing.T) {
	m := NewWidgetPickerModel("main", []string{"a"}, nil)

	m, cmd := press(m, keyEsc)
	if cmd == nil {
		t.Error("esc should quit the picker")
	}
	if m.Selected != nil {
		t.Errorf("Selected = %q, want nil after cancel", *m.Selected)
	}
}

func TestWidgetPickerView(t *testing.T) {
	m := NewWidgetPickerModel("main", []string{"page"}, map[string]string{"page": "Page"})
	view := m.View()

	for _, want := range []string{"Select widget for main", "page", "Page", "(empty cell)", "[1/2]"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}

package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/familytree/pkg/family"
)

func summaries(n int) []family.Summary {
	out := make([]family.Summary, n)
	for i := range out {
		out[i] = family.Summary{ID: string(rune('a' + i)), Name: "Tree " + string(rune('A'+i))}
	}
	return out
}

func press(m TreeListModel, keys ...string) (TreeListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(TreeListModel)
	}
	return m, cmd
}

func TestTreeListNavigation(t *testing.T) {
	m := NewTreeListModel(summaries(3))

	m, _ = press(m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("Cursor = %d, want 2 (clamped)", m.Cursor)
	}
	m, _ = press(m, "up", "k")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0", m.Cursor)
	}
	m, _ = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("Cursor = %d, want 0 (clamped)", m.Cursor)
	}
}

func TestTreeListSelect(t *testing.T) {
	m := NewTreeListModel(summaries(3))
	m, cmd := press(m, "j", "enter")

	if m.Selected == nil {
		t.Fatal("Selected = nil, want second tree")
	}
	if m.Selected.ID != "b" {
		t.Errorf("Selected.ID = %q, want %q", m.Selected.ID, "b")
	}
	if cmd == nil {
		t.Error("enter should quit the program")
	}
}

func TestTreeListQuit(t *testing.T) {
	m, cmd := press(NewTreeListModel(summaries(2)), "q")
	if m.Selected != nil {
		t.Errorf("Selected = %v, want nil", m.Selected)
	}
	if cmd == nil {
		t.Error("q should quit the program")
	}
}

func TestTreeListScroll(t *testing.T) {
	m := NewTreeListModel(summaries(10))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 9})
	m = next.(TreeListModel)
	if m.Height != 5 {
		t.Fatalf("Height = %d, want 5", m.Height)
	}

	for range 7 {
		m, _ = press(m, "down")
	}
	if m.Offset != 3 {
		t.Errorf("Offset = %d, want 3", m.Offset)
	}
	view := m.View()
	if !strings.Contains(view, "Tree H") || strings.Contains(view, "Tree A") {
		t.Errorf("View() does not show the scrolled window:\n%s", view)
	}
}

func TestTreeListViewEmpty(t *testing.T) {
	m, cmd := press(NewTreeListModel(nil), "enter")
	if m.Selected != nil || cmd == nil {
		t.Errorf("enter on empty list: Selected = %v, quit = %v", m.Selected, cmd != nil)
	}
	if !strings.Contains(m.View(), "Select Family Tree") {
		t.Error("View() missing title")
	}
}

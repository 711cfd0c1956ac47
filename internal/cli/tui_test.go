package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestProgressModel(t *testing.T) {
	var m tea.Model = newProgressModel()

	m, _ = m.Update(progressMsg{done: 1, total: 4, file: "/data/images/a.png"})
	view := m.View()
	if !strings.Contains(view, "1/4") {
		t.Errorf("View() = %q, want it to contain 1/4", view)
	}
	if !strings.Contains(view, "a.png") || strings.Contains(view, "/data/images") {
		t.Errorf("View() = %q, want the base file name only", view)
	}

	m, cmd := m.Update(doneMsg{})
	if cmd == nil {
		t.Fatal("doneMsg returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("doneMsg did not quit")
	}
	if m.View() != "" {
		t.Errorf("View() after done = %q, want empty", m.View())
	}
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		done, total int
		filled      int
	}{
		{0, 0, 0},
		{0, 10, 0},
		{5, 10, barWidth / 2},
		{10, 10, barWidth},
	}
	for _, tt := range tests {
		m := progressModel{done: tt.done, total: tt.total, width: barWidth}
		bar := m.bar()
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("bar(%d/%d) filled = %d, want %d", tt.done, tt.total, got, tt.filled)
		}
		if got := strings.Count(bar, "█") + strings.Count(bar, "░"); got != barWidth {
			t.Errorf("bar(%d/%d) width = %d, want %d", tt.done, tt.total, got, barWidth)
		}
	}
}

func TestProgressModelResize(t *testing.T) {
	var m tea.Model = newProgressModel()
	m, _ = m.Update(tea.WindowSizeMsg{Width: 20, Height: 10})
	if w := m.(progressModel).width; w != barMinWidth {
		t.Errorf("width = %d, want %d", w, barMinWidth)
	}
	m, _ = m.Update(tea.WindowSizeMsg{Width: 200, Height: 10})
	if w := m.(progressModel).width; w != barWidth {
		t.Errorf("width = %d, want %d", w, barWidth)
	}
}

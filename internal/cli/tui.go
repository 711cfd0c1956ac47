package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Progress bar styles
var (
	barFilledStyle = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	barWidth    = 30
	barMinWidth = 10
)

// =============================================================================
// progressModel - Live augmentation progress
// =============================================================================

// progressMsg reports that one more image finished.
type progressMsg struct {
	done, total int
	file        string
}

// doneMsg ends the program.
type doneMsg struct{}

// progressModel is the bubbletea model behind --progress.
type progressModel struct {
	done, total int
	file        string
	width       int
	finished    bool
}

func newProgressModel() progressModel {
	return progressModel{width: barWidth}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case progressMsg:
		m.done, m.total, m.file = msg.done, msg.total, msg.file
	case doneMsg:
		m.finished = true
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.width = min(barWidth, msg.Width-40)
		if m.width < barMinWidth {
			m.width = barMinWidth
		}
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.finished {
		return ""
	}
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Augmenting"))
	b.WriteString(" ")
	b.WriteString(m.bar())
	b.WriteString(" ")
	b.WriteString(StyleNumber.Render(fmt.Sprintf("%d/%d", m.done, m.total)))
	if m.file != "" {
		b.WriteString("  ")
		b.WriteString(StyleDim.Render(filepath.Base(m.file)))
	}
	b.WriteString("\n")
	return b.String()
}

func (m progressModel) bar() string {
	filled := 0
	if m.total > 0 {
		filled = m.done * m.width / m.total
	}
	return barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", m.width-filled))
}

// =============================================================================
// progressView - Program lifecycle
// =============================================================================

// progressView runs a progressModel on stderr without taking over stdin or
// signal handling.
type progressView struct {
	program *tea.Program
	exited  chan struct{}
}

func startProgressView(ctx context.Context) *progressView {
	v := &progressView{
		program: tea.NewProgram(newProgressModel(),
			tea.WithContext(ctx),
			tea.WithOutput(os.Stderr),
			tea.WithInput(nil),
			tea.WithoutSignalHandler(),
		),
		exited: make(chan struct{}),
	}
	go func() {
		defer close(v.exited)
		_, _ = v.program.Run()
	}()
	return v
}

// update matches the pipeline's progress callback.
func (v *progressView) update(done, total int, file string) {
	v.program.Send(progressMsg{done: done, total: total, file: file})
}

// stop ends the program and waits until the terminal is restored.
func (v *progressView) stop() {
	v.program.Send(doneMsg{})
	<-v.exited
}

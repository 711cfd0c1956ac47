package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a single status line for a dataset run. It doubles as a
// pipeline progress callback through update, so the line reads
// "Augmenting 3/10 cat.jpg" while images complete.
type Spinner struct {
	out    io.Writer
	label  string
	ctx    context.Context
	cancel context.CancelFunc

	done    chan struct{}
	stopped chan struct{}
	stop    sync.Once

	mu          sync.Mutex
	n, total    int
	file        string
	lastWritten int
}

// newSpinner creates a spinner writing to stderr that stops when ctx is
// cancelled.
func newSpinner(ctx context.Context, label string) *Spinner {
	return newSpinnerTo(ctx, os.Stderr, label)
}

func newSpinnerTo(ctx context.Context, w io.Writer, label string) *Spinner {
	sctx, cancel := context.WithCancel(ctx)
	return &Spinner{
		out:     w,
		label:   label,
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// update records that done of total images finished, file being the last.
// Its signature matches pipeline.Options.Progress.
func (s *Spinner) update(done, total int, file string) {
	s.mu.Lock()
	s.n, s.total, s.file = done, total, file
	s.mu.Unlock()
}

// line renders the status text without the animation frame.
func (s *Spinner) line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 {
		return s.label + "..."
	}
	text := fmt.Sprintf("%s %d/%d", s.label, s.n, s.total)
	if s.file != "" {
		text += " " + filepath.Base(s.file)
	}
	return text
}

// Start begins the animation.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *Spinner) draw(frame string) {
	text := s.line()
	s.mu.Lock()
	defer s.mu.Unlock()
	// Pad so a shorter line fully covers the previous one.
	pad := max(0, s.lastWritten-len(text))
	fmt.Fprintf(s.out, "\r%s %s%s", styleIconSpinner.Render(frame), StyleDim.Render(text), strings.Repeat(" ", pad))
	s.lastWritten = len(text)
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *Spinner) Stop() {
	s.stop.Do(func() {
		close(s.done)
		<-s.stopped
		s.cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.lastWritten > 0 {
			fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", s.lastWritten+2))
		}
	})
}

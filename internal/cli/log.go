// Package cli implements the boxaug command-line interface.
//
// The CLI is built with cobra and logs through charmbracelet/log. Progress
// is shown with a bubbletea view or a spinner when stderr is a terminal.
//
// # Commands
//
//   - augment: augment a COCO dataset directory
//   - config: show, validate or write a pipeline configuration
//   - serve: expose single-image augmentation over HTTP
//   - journal: inspect recorded runs
//   - cache: manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
//
// # Example
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a timestamped logger writing to w at level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one command and logs its completion with structured
// context, for example:
//
//	INFO Wrote out/augmented_annotations.json run=01J9... images=42 elapsed=1.234s
//
// Not safe for concurrent use.
type progress struct {
	logger  *log.Logger
	start   time.Time
	keyvals []any
}

func newProgress(l *log.Logger, keyvals ...any) *progress {
	return &progress{logger: l, start: time.Now(), keyvals: keyvals}
}

// with adds key/value pairs that become known while the command runs,
// such as the journal run ID.
func (p *progress) with(keyvals ...any) *progress {
	p.keyvals = append(p.keyvals, keyvals...)
	return p
}

// done logs msg with the collected fields and the elapsed time rounded to
// the millisecond.
func (p *progress) done(msg string) {
	kv := append(slices.Clone(p.keyvals), "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, kv...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for the command being run.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() for contexts that bypassed the root command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// Package journal records augmentation runs and the per-image outcome of
// each run, so a dataset can be traced back to the seed and operators that
// produced every image.
//
// Three backends implement [Journal]: SQLite for local use, MongoDB for a
// shared store, and a null journal that records nothing. [Open] selects one
// from a DSN.
package journal

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/boxaug/pkg/errors"
)

// Run summarises one invocation of the dataset runner.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	ConfigHash string    `json:"config_hash"`
	Seed       uint64    `json:"seed"`
	ImagesDir  string    `json:"images_dir"`
	OutputDir  string    `json:"output_dir"`

	// Totals, filled in by FinishRun.
	Images  int `json:"images"`
	Kept    int `json:"kept"`
	Dropped int `json:"dropped"`
	Failed  int `json:"failed"`
}

// Finished reports whether FinishRun was called for r.
func (r Run) Finished() bool { return !r.FinishedAt.IsZero() }

// Entry is the outcome for one image of a run.
type Entry struct {
	RunID          string   `json:"run_id"`
	FileName       string   `json:"file_name"`
	ImageID        int64    `json:"image_id"`
	Seed           uint64   `json:"seed"`
	Applied        []string `json:"applied"`
	AnnotationsIn  int      `json:"annotations_in"`
	AnnotationsOut int      `json:"annotations_out"`
	Width          int      `json:"width"`
	Height         int      `json:"height"`
	CacheHit       bool     `json:"cache_hit"`
	Error          string   `json:"error,omitempty"`
}

// Journal persists runs and entries. Implementations are safe for
// concurrent use.
type Journal interface {
	// StartRun stores a new run. It assigns run.ID when empty and
	// run.StartedAt when zero.
	StartRun(ctx context.Context, run *Run) error

	// Record stores the outcome of one image.
	Record(ctx context.Context, e Entry) error

	// FinishRun stores the totals of run and sets run.FinishedAt.
	FinishRun(ctx context.Context, run *Run) error

	// Run returns the run with the given ID, or a NOT_FOUND error.
	Run(ctx context.Context, id string) (*Run, error)

	// Runs returns up to limit runs, newest first. limit <= 0 means all.
	Runs(ctx context.Context, limit int) ([]Run, error)

	// Entries returns the entries of a run ordered by file name.
	Entries(ctx context.Context, runID string) ([]Entry, error)

	Close() error
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open returns the journal described by dsn:
//
//   - "" or "none" selects [Null]
//   - a mongodb:// or mongodb+srv:// URI selects [MongoJournal]
//   - anything else is a SQLite database path
func Open(ctx context.Context, dsn string) (Journal, error) {
	switch {
	case dsn == "" || dsn == "none":
		return Null{}, nil
	case strings.HasPrefix(dsn, "mongodb://"), strings.HasPrefix(dsn, "mongodb+srv://"):
		return OpenMongo(ctx, dsn)
	}
	return OpenSQLite(dsn)
}

func prepareRun(run *Run) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "run %q not found", id)
}

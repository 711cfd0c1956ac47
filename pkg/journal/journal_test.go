package journal

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/boxaug/pkg/errors"
)

func openSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func exercise(t *testing.T, j Journal) {
	t.Helper()
	ctx := context.Background()

	run := &Run{ConfigHash: "abc", Seed: math.MaxUint64 - 1, ImagesDir: "in", OutputDir: "out"}
	if err := j.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.ID == "" || run.StartedAt.IsZero() {
		t.Fatalf("StartRun did not assign ID and StartedAt: %+v", run)
	}

	entries := []Entry{
		{RunID: run.ID, FileName: "b.png", ImageID: 2, Seed: 7, Applied: []string{"rotate", "h_flip"},
			AnnotationsIn: 3, AnnotationsOut: 2, Width: 120, Height: 80, CacheHit: true},
		{RunID: run.ID, FileName: "a.png", ImageID: 1, Seed: math.MaxUint64, AnnotationsIn: 1, AnnotationsOut: 1,
			Width: 64, Height: 64},
		{RunID: run.ID, FileName: "c.png", ImageID: 3, Error: "IMAGE_DECODE: bad header"},
	}
	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	run.Images, run.Kept, run.Dropped, run.Failed = 3, 3, 1, 1
	if err := j.FinishRun(ctx, run); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := j.Run(ctx, run.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Seed != run.Seed {
		t.Errorf("Seed = %d, want %d", got.Seed, run.Seed)
	}
	if got.Images != 3 || got.Kept != 3 || got.Dropped != 1 || got.Failed != 1 {
		t.Errorf("totals = %+v", got)
	}
	if !got.Finished() {
		t.Error("run not marked finished")
	}
	if got.ConfigHash != "abc" || got.ImagesDir != "in" || got.OutputDir != "out" {
		t.Errorf("run fields = %+v", got)
	}

	es, err := j.Entries(ctx, run.ID)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	var names []string
	for _, e := range es {
		names = append(names, e.FileName)
	}
	if !slices.Equal(names, []string{"a.png", "b.png", "c.png"}) {
		t.Fatalf("entries = %v, want sorted by file name", names)
	}
	if es[0].Seed != math.MaxUint64 {
		t.Errorf("entry seed = %d, want MaxUint64", es[0].Seed)
	}
	if !slices.Equal(es[1].Applied, []string{"rotate", "h_flip"}) || !es[1].CacheHit {
		t.Errorf("entry b = %+v", es[1])
	}
	if len(es[0].Applied) != 0 {
		t.Errorf("entry a applied = %v, want none", es[0].Applied)
	}
	if es[2].Error == "" {
		t.Error("entry c lost its error")
	}

	if _, err := j.Run(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Run(missing) error = %v, want NOT_FOUND", err)
	}
}

func TestSQLiteJournal(t *testing.T) {
	exercise(t, openSQLite(t))
}

func TestSQLiteRunsNewestFirst(t *testing.T) {
	j := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var ids []string
	for i := range 3 {
		r := &Run{StartedAt: base.Add(time.Duration(i) * time.Minute), ConfigHash: "h"}
		if err := j.StartRun(ctx, r); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := j.Runs(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 3 || runs[0].ID != ids[2] || runs[2].ID != ids[0] {
		t.Errorf("Runs order = %v, want newest first", runs)
	}
	if runs[0].Finished() {
		t.Error("unfinished run reported finished")
	}

	runs, _ = j.Runs(ctx, 2)
	if len(runs) != 2 {
		t.Errorf("Runs(2) returned %d runs", len(runs))
	}
}

func TestSQLiteFinishUnknownRun(t *testing.T) {
	j := openSQLite(t)
	err := j.FinishRun(context.Background(), &Run{ID: "nope"})
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("FinishRun error = %v, want NOT_FOUND", err)
	}
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	r := &Run{ConfigHash: "h"}
	if err := j.StartRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	j.Close()

	j, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	if _, err := j.Run(ctx, r.ID); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	var j Journal = Null{}
	r := &Run{}
	if err := j.StartRun(ctx, r); err != nil || r.ID == "" {
		t.Errorf("StartRun = %v, ID %q", err, r.ID)
	}
	if err := j.Record(ctx, Entry{RunID: r.ID}); err != nil {
		t.Error(err)
	}
	if runs, _ := j.Runs(ctx, 10); len(runs) != 0 {
		t.Errorf("Runs = %v", runs)
	}
	if _, err := j.Run(ctx, r.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Run error = %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	j, err := Open(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := j.(Null); !ok {
		t.Errorf("Open(\"\") = %T, want Null", j)
	}

	j, err = Open(ctx, filepath.Join(t.TempDir(), "j.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	if _, ok := j.(*SQLiteJournal); !ok {
		t.Errorf("Open(path) = %T, want *SQLiteJournal", j)
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("NewRunID returned duplicates")
	}
	if len(a) != 36 {
		t.Errorf("NewRunID length = %d, want 36", len(a))
	}
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		uri, want string
	}{
		{"mongodb://localhost:27017", DefaultMongoDatabase},
		{"mongodb://localhost:27017/", DefaultMongoDatabase},
		{"mongodb://localhost:27017/datasets", "datasets"},
		{"mongodb+srv://user:pw@cluster.example.com/aug?retryWrites=true", "aug"},
	}
	for _, tt := range tests {
		if got := databaseName(tt.uri); got != tt.want {
			t.Errorf("databaseName(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestMongoJournal(t *testing.T) {
	uri := os.Getenv("BOXAUG_TEST_MONGO")
	if uri == "" {
		t.Skip("BOXAUG_TEST_MONGO not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	j, err := OpenMongo(ctx, uri)
	if err != nil {
		t.Fatalf("OpenMongo: %v", err)
	}
	defer j.Close()
	exercise(t, j)
}

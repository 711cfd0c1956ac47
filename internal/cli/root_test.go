package cli

import (
	"bytes"
	"context"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/journal"
	"github.com/matzehuels/boxaug/pkg/pipeline"
)

// run executes the CLI with args and returns what commands wrote through
// cmd.OutOrStdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := c.execute(context.Background(), root)
	return out.String(), err
}

func TestRootCommandSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	want := []string{"augment", "config", "serve", "journal", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	if err != nil {
		t.Fatalf("--version: %v", err)
	}
	if !strings.HasPrefix(out, "boxaug version ") {
		t.Errorf("--version output = %q", out)
	}
}

func TestVerboseFlag(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetArgs([]string{"-v", "config", "show"})
	if err := c.execute(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("level = %v, want debug", c.Logger.GetLevel())
	}
}

func TestAugmentRequiresInputs(t *testing.T) {
	if _, err := run(t, "augment"); err == nil {
		t.Error("augment without --images and --annotations succeeded")
	}
}

const testDataset = `{
  "images": [{"id": 1, "file_name": "a.png", "width": 40, "height": 20}],
  "annotations": [{"id": 1, "image_id": 1, "category_id": 1, "bbox": [2, 2, 10, 10]}],
  "categories": [{"id": 1, "name": "box"}]
}`

func writeDataset(t *testing.T) (images, annotations string) {
	t.Helper()
	root := t.TempDir()
	images = filepath.Join(root, "images")
	annotations = filepath.Join(root, "annotations.json")
	if err := os.Mkdir(images, 0o755); err != nil {
		t.Fatal(err)
	}
	img := imaging.New(40, 20, color.NRGBA{R: 90, G: 90, B: 90, A: 255})
	if err := imaging.Save(img, filepath.Join(images, "a.png")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(annotations, []byte(testDataset), 0o644); err != nil {
		t.Fatal(err)
	}
	return images, annotations
}

func TestAugmentAndJournal(t *testing.T) {
	images, annotations := writeDataset(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	dsn := filepath.Join(dir, "runs.db")

	_, err := run(t, "augment",
		"--images", images,
		"--annotations", annotations,
		"--output", output,
		"--seed", "7",
		"--workers", "2",
		"--no-cache",
		"--journal", dsn)
	if err != nil {
		t.Fatalf("augment: %v", err)
	}

	if _, err := os.Stat(filepath.Join(output, "a.png")); err != nil {
		t.Errorf("augmented image: %v", err)
	}
	ds, err := coco.Import(filepath.Join(output, pipeline.AnnotationsFile))
	if err != nil {
		t.Fatalf("read output dataset: %v", err)
	}
	if len(ds.Images) != 1 {
		t.Errorf("images = %d, want 1", len(ds.Images))
	}

	j, err := journal.OpenSQLite(dsn)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := j.Runs(context.Background(), 0)
	j.Close()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].Seed != 7 || runs[0].Images != 1 {
		t.Errorf("run = %+v, want seed 7 and 1 image", runs[0])
	}

	out, err := run(t, "journal", "runs", "--journal", dsn)
	if err != nil {
		t.Fatalf("journal runs: %v", err)
	}
	if !strings.Contains(out, runs[0].ID) {
		t.Errorf("journal runs output misses %s:\n%s", runs[0].ID, out)
	}

	out, err = run(t, "journal", "show", runs[0].ID, "--journal", dsn)
	if err != nil {
		t.Fatalf("journal show: %v", err)
	}
	if !strings.Contains(out, "a.png") {
		t.Errorf("journal show output misses a.png:\n%s", out)
	}

	if _, err := run(t, "journal", "show", "nope", "--journal", dsn); err == nil {
		t.Error("journal show accepted an unknown run")
	}
}

func TestAugmentLogsRunSummary(t *testing.T) {
	images, annotations := writeDataset(t)
	dir := t.TempDir()
	dsn := filepath.Join(dir, "runs.db")

	var logs bytes.Buffer
	c := New(&logs, log.InfoLevel)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"augment",
		"--images", images,
		"--annotations", annotations,
		"--output", filepath.Join(dir, "out"),
		"--seed", "3",
		"--no-cache",
		"--journal", dsn})
	if err := c.execute(context.Background(), root); err != nil {
		t.Fatalf("augment: %v", err)
	}

	j, err := journal.OpenSQLite(dsn)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := j.Runs(context.Background(), 1)
	j.Close()
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v", runs, err)
	}

	var summary string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Wrote ") {
			summary = line
		}
	}
	for _, want := range []string{"run=" + runs[0].ID, "seed=3", "images=1", "elapsed="} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary line %q misses %q", summary, want)
		}
	}
}

package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boxaug/pkg/cache"
	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/journal"
	"github.com/matzehuels/boxaug/pkg/observability"
)

// Runner encapsulates dataset runs with caching and journaling.
// Both CLI and API use it to avoid duplicating that logic.
//
// The Runner keeps no per-run state, so one Runner may serve several
// concurrent runs with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Journal journal.Journal
	Logger  *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// The journal starts as [journal.Null]; assign Runner.Journal to record runs.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Journal: journal.Null{},
		Logger:  logger,
	}
}

// job is one image scheduled for augmentation.
type job struct {
	name  string
	image coco.Image
	anns  []coco.Annotation
	seed  uint64
}

// outcome is what a worker produced for a job. Exactly one of out and err is
// set.
type outcome struct {
	out *Output
	err error
}

// Execute augments every image of opts.ImagesDir that has a record in the
// annotation file, writes the results to opts.OutputDir and returns run
// statistics.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	start := time.Now()

	ds, err := coco.Import(opts.AnnotationsPath)
	if err != nil {
		return nil, err
	}
	names, err := ListImages(opts.ImagesDir)
	if err != nil {
		return nil, err
	}
	aug, err := NewAugmenter(opts.Config)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", opts.OutputDir)
	}

	stats := Stats{Applied: make(map[string]int)}
	idx := coco.NewIndex(ds)
	var jobs []job
	for _, name := range names {
		im, anns, ok := idx.Lookup(name)
		if !ok {
			r.Logger.Warn("no annotation record, skipping", "image", name)
			stats.Skipped++
			continue
		}
		// Outputs are written under the same name, so it must stay a plain
		// base name inside OutputDir.
		if err := errors.ValidateFileName(im.FileName); err != nil {
			r.Logger.Warn("unsafe file name, skipping", "image", name, "error", err)
			stats.Skipped++
			continue
		}
		jobs = append(jobs, job{name: name, image: im, anns: anns, seed: SeedFor(opts.Config.Seed, name)})
	}

	run := &journal.Run{
		ConfigHash: aug.ConfigHash,
		Seed:       opts.Config.Seed,
		ImagesDir:  opts.ImagesDir,
		OutputDir:  opts.OutputDir,
	}
	if err := r.Journal.StartRun(ctx, run); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, run.ID, len(jobs))
	r.Logger.Info("starting run",
		"run", run.ID,
		"images", len(jobs),
		"records", idx.Len(),
		"skipped", stats.Skipped,
		"workers", opts.Config.Workers)

	outcomes, runErr := r.process(ctx, aug, jobs, opts, run.ID)

	// Merge in directory order regardless of completion order.
	var merged []coco.Annotation
	sizes := make(map[int64][2]int, len(jobs))
	for i, o := range outcomes {
		switch {
		case o.out != nil:
			stats.add(o.out)
			merged = append(merged, o.out.Annotations...)
			sizes[jobs[i].image.ID] = [2]int{o.out.Width, o.out.Height}
		case o.err != nil:
			stats.Failed++
		}
	}

	result := &Result{RunID: run.ID}
	if runErr == nil {
		result.AnnotationsPath, runErr = writeDataset(ds, merged, sizes, opts.OutputDir)
	}
	stats.Duration = time.Since(start)
	result.Stats = stats

	run.Images, run.Kept, run.Dropped, run.Failed = stats.Images, stats.Kept, stats.Dropped, stats.Failed
	if err := r.Journal.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		r.Logger.Warn("failed to finish journal run", "run", run.ID, "error", err)
	}
	hooks.OnRunComplete(ctx, run.ID, stats.Images, stats.Duration, runErr)

	if runErr != nil {
		return result, runErr
	}
	r.Logger.Info("run complete",
		"run", run.ID,
		"images", stats.Images,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
		"failed", stats.Failed,
		"cache_hits", stats.CacheHits,
		"duration", stats.Duration)
	return result, nil
}

// process runs jobs on a bounded worker pool. Without KeepGoing the first
// error cancels the remaining jobs and is returned.
func (r *Runner) process(ctx context.Context, aug *Augmenter, jobs []job, opts Options, runID string) ([]outcome, error) {
	outcomes := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Config.Workers)

	var (
		mu   sync.Mutex
		done int
	)
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := r.processImage(gctx, aug, j, opts, runID)
			outcomes[i] = outcome{out: out, err: err}

			if opts.Progress != nil {
				mu.Lock()
				done++
				n := done
				mu.Unlock()
				opts.Progress(n, len(jobs), j.name)
			}
			if err != nil && !opts.KeepGoing {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	// Cancellation from the caller is not reported by any job when it
	// arrives after the last one started.
	return outcomes, ctx.Err()
}

func (r *Runner) processImage(ctx context.Context, aug *Augmenter, j job, opts Options, runID string) (*Output, error) {
	hooks := observability.Pipeline()
	hooks.OnImageStart(ctx, j.name)
	start := time.Now()

	entry := journal.Entry{
		RunID:         runID,
		FileName:      j.name,
		ImageID:       j.image.ID,
		Seed:          j.seed,
		AnnotationsIn: len(j.anns),
	}
	out, err := r.augmentFile(ctx, aug, j, opts)
	if err != nil {
		entry.Error = err.Error()
		r.Logger.Error("image failed", "image", j.name, "error", err)
	} else {
		entry.Applied = out.Applied
		entry.AnnotationsOut = len(out.Annotations)
		entry.Width, entry.Height = out.Width, out.Height
		entry.CacheHit = out.CacheHit
		for _, name := range out.Applied {
			hooks.OnTransform(ctx, j.name, name)
		}
		r.Logger.Debug("augmented image",
			"image", j.name,
			"applied", out.Applied,
			"annotations", len(out.Annotations),
			"dropped", out.Dropped,
			"cached", out.CacheHit)
	}

	if jerr := r.Journal.Record(context.WithoutCancel(ctx), entry); jerr != nil {
		r.Logger.Warn("failed to journal image", "image", j.name, "error", jerr)
	}
	kept, dropped := 0, 0
	if out != nil {
		kept, dropped = len(out.Annotations), out.Dropped
	}
	hooks.OnImageComplete(ctx, j.name, kept, dropped, time.Since(start), err)
	return out, err
}

func (r *Runner) augmentFile(ctx context.Context, aug *Augmenter, j job, opts Options) (*Output, error) {
	data, err := os.ReadFile(filepath.Join(opts.ImagesDir, j.name))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", j.name)
	}
	out, err := r.Augment(ctx, aug, Item{Name: j.name, Data: data, Annotations: j.anns, Seed: j.seed}, opts.Refresh)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(opts.OutputDir, j.name), out.Data, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageEncode, err, "write %s", j.name)
	}
	return out, nil
}

// ListImages returns the supported image files directly inside dir, sorted
// by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "images directory %s", dir)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "images directory %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// writeDataset writes ds with its annotations replaced by anns and the
// sizes of augmented images updated. Image records of files that were not
// augmented are kept unchanged.
func writeDataset(ds *coco.Dataset, anns []coco.Annotation, sizes map[int64][2]int, dir string) (string, error) {
	if anns == nil {
		anns = []coco.Annotation{}
	}
	out := *ds
	out.Annotations = anns
	out.Images = slices.Clone(ds.Images)
	for i, im := range out.Images {
		if s, ok := sizes[im.ID]; ok {
			out.Images[i].Width, out.Images[i].Height = s[0], s[1]
		}
	}
	path := filepath.Join(dir, AnnotationsFile)
	if err := coco.Export(&out, path); err != nil {
		return "", err
	}
	return path, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Journal != nil {
		errs = append(errs, r.Journal.Close())
	}
	return stderrors.Join(errs...)
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boxaug/pkg/pipeline"
)

// augmentFlags holds flags for the augment command.
type augmentFlags struct {
	images      string
	annotations string
	config      string
	output      string
	seed        uint64
	workers     int
	keepGoing   bool
	refresh     bool
	progress    bool
	store       storeFlags

	seedSet, workersSet bool
}

// augmentCommand creates the augment command.
func (c *CLI) augmentCommand() *cobra.Command {
	var f augmentFlags

	cmd := &cobra.Command{
		Use:   "augment",
		Short: "Augment a COCO dataset",
		Long: `Augment every annotated image in a directory.

Each image is decoded, passed through the configured operators and written to
the output directory under its original name. Bounding boxes are transformed
with the image; boxes that leave the frame are dropped. The updated dataset is
written to augmented_annotations.json in the output directory.

Results are cached by image content, configuration and seed, so re-running an
unchanged dataset is fast. Every run is recorded in the journal.`,
		Example: `  # Defaults, single worker
  boxaug augment --images data/images --annotations data/annotations.json

  # Custom pipeline, eight workers, live progress
  boxaug augment --images data/images --annotations data/annotations.json \
    --config pipeline.yaml --workers 8 --progress

  # Share cached results through Redis
  boxaug augment --images imgs --annotations ann.json --cache redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.seedSet = cmd.Flags().Changed("seed")
			f.workersSet = cmd.Flags().Changed("workers")
			return c.runAugment(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.images, "images", "", "directory containing the source images (required)")
	cmd.Flags().StringVar(&f.annotations, "annotations", "", "COCO annotation file (required)")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "pipeline configuration file (yaml, json or toml)")
	cmd.Flags().StringVarP(&f.output, "output", "o", pipeline.DefaultOutputDir, "output directory")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "base random seed (overrides the configuration)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "images processed in parallel (overrides the configuration)")
	cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "continue past images that fail")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "show a live progress bar")
	f.store.register(cmd, true)
	_ = cmd.MarkFlagRequired("images")
	_ = cmd.MarkFlagRequired("annotations")

	return cmd
}

func (c *CLI) runAugment(ctx context.Context, f augmentFlags) error {
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	if f.seedSet {
		cfg.Seed = f.seed
	}
	if f.workersSet {
		cfg.Workers = f.workers
	}

	runner, err := c.newRunner(ctx, f.store)
	if err != nil {
		return err
	}
	defer runner.Close()

	stats := newRunStats()
	defer stats.install()()

	opts := pipeline.Options{
		ImagesDir:       f.images,
		AnnotationsPath: f.annotations,
		OutputDir:       f.output,
		Config:          cfg,
		KeepGoing:       f.keepGoing,
		Refresh:         f.refresh,
	}

	logger.Debug("configuration", "hash", cfg.Hash(), "seed", cfg.Seed, "workers", cfg.Workers, "backend", cfg.Backend)
	prog := newProgress(logger, "seed", cfg.Seed)

	var res *pipeline.Result
	interactive := isatty.IsTerminal(os.Stderr.Fd())
	switch {
	case f.progress && interactive:
		view := startProgressView(ctx)
		opts.Progress = view.update
		res, err = runner.Execute(ctx, opts)
		view.stop()
	case interactive:
		spinner := newSpinner(ctx, "Augmenting")
		opts.Progress = spinner.update
		spinner.Start()
		res, err = runner.Execute(ctx, opts)
		spinner.Stop()
	default:
		res, err = runner.Execute(ctx, opts)
	}
	if err != nil {
		return err
	}

	prog.with("run", res.RunID, "images", res.Stats.Images).done("Wrote " + res.AnnotationsPath)
	printRunSummary(res, stats)
	return nil
}

func printRunSummary(res *pipeline.Result, stats *runStats) {
	s := res.Stats
	printSuccess("Augmented %d images", s.Images)
	printStats(s.Kept, s.Dropped, s.CacheHits)
	printFile(res.AnnotationsPath)
	if s.Skipped > 0 {
		printWarning("%d images were skipped (no annotation record or unsafe name)", s.Skipped)
	}
	if s.Failed > 0 {
		printWarning("%d images failed", s.Failed)
	}

	printNewline()
	for _, op := range stats.operators() {
		printKeyValue(op.name, fmt.Sprintf("%d", op.count))
	}
	if avg := stats.average(); avg > 0 {
		printKeyValue("avg/image", avg.Round(time.Millisecond).String())
		printKeyValue("slowest", fmt.Sprintf("%s (%s)", stats.slowest, stats.slowestDur.Round(time.Millisecond)))
	}
	printKeyValue("duration", s.Duration.Round(time.Millisecond).String())

	if res.RunID != "" {
		printNewline()
		printNextStep("Inspect this run", "boxaug journal show "+res.RunID)
	}
}

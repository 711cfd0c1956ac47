// Package pipeline runs augmentation over a whole dataset.
//
// The CLI and the HTTP API both go through a [Runner], so caching,
// journaling and seeding behave the same on every entry point.
//
// # Architecture
//
// A dataset run has three stages:
//
//  1. List: source images are listed non-recursively and sorted by name
//  2. Augment: each image is decoded, passed through the configured
//     [augment.Pipeline], and encoded in its original format
//  3. Write: augmented images are written under their original names and
//     the merged annotations are written to augmented_annotations.json
//
// Every image draws from its own random source derived from the run seed and
// the image's file name (see [SeedFor]), so output does not depend on the
// number of workers or the order in which they finish.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ImagesDir:       "images",
//	    AnnotationsPath: "annotations.json",
//	    Config:          config.Default(),
//	})
package pipeline

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/boxaug/pkg/config"
	"github.com/matzehuels/boxaug/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultOutputDir is used when Options.OutputDir is empty.
	DefaultOutputDir = "augmented_dataset"

	// AnnotationsFile is the name of the annotation file written to the
	// output directory.
	AnnotationsFile = "augmented_annotations.json"
)

// Extensions lists the image file extensions a run picks up, lower case.
var Extensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// IsImage reports whether name has one of the supported image extensions.
func IsImage(name string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// =============================================================================
// Options
// =============================================================================

// Options configures one dataset run.
type Options struct {
	ImagesDir       string
	AnnotationsPath string
	OutputDir       string

	Config config.Config

	// KeepGoing logs and journals a failing image and continues with the
	// rest. Without it the first failure aborts the run.
	KeepGoing bool

	// Refresh ignores cached results. Fresh results are still written back.
	Refresh bool

	// Progress, if set, is called after each image. It may be called from
	// several goroutines at once.
	Progress func(done, total int, file string)
}

// ValidateAndSetDefaults checks required fields and applies defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if o.ImagesDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "images directory is required")
	}
	if o.AnnotationsPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "annotation file is required")
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.Config.Workers == 0 {
		o.Config.Workers = config.DefaultWorkers
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}

	in, err := filepath.Abs(o.ImagesDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "images directory %s", o.ImagesDir)
	}
	out, err := filepath.Abs(o.OutputDir)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "output directory %s", o.OutputDir)
	}
	if in == out {
		return errors.New(errors.ErrCodeInvalidPath,
			"output directory must differ from the images directory (%s)", o.ImagesDir)
	}
	return nil
}

// =============================================================================
// Results
// =============================================================================

// Result contains the outcome of a dataset run.
type Result struct {
	// RunID identifies the run in the journal.
	RunID string

	// AnnotationsPath is where the merged annotation file was written.
	AnnotationsPath string

	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	Images    int // images augmented, including cache hits
	Skipped   int // images with no record in the annotation file or an unsafe name
	Failed    int // images that failed with KeepGoing set
	CacheHits int

	Kept    int // annotations written
	Dropped int // annotations removed by geometric transforms

	// Applied counts how often each operator fired.
	Applied map[string]int

	Duration time.Duration
}

func (s *Stats) add(out *Output) {
	s.Images++
	s.Kept += len(out.Annotations)
	s.Dropped += out.Dropped
	if out.CacheHit {
		s.CacheHits++
	}
	for _, name := range out.Applied {
		s.Applied[name]++
	}
}

// Package pkg provides the core libraries for boxaug bounding-box-consistent
// image augmentation.
//
// # Overview
//
// boxaug applies randomized geometric and photometric operators to the images
// of a COCO-style object detection dataset and rewrites every bounding box so
// it still frames its object. The pkg directory is organized into three areas:
//
//  1. Domain logic: [geom], [coco] and [augment]
//  2. Orchestration: [config] and [pipeline]
//  3. Infrastructure: [cache], [journal], [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The data flow for one dataset:
//
//	images dir + annotations.json
//	         ↓
//	    [coco] package (decode dataset, index annotations by file name)
//	         ↓
//	    [config] package (load settings, build the operator pipeline)
//	         ↓
//	    [augment] package (rotate, shift, add noise, flip; transform boxes)
//	         ↓
//	    [pipeline] package (worker pool, cache, journal, write outputs)
//	         ↓
//	augmented images + augmented_annotations.json
//
// # Quick Start
//
// Augment a single image in memory:
//
//	cfg := config.Default()
//	p, _ := config.BuildPipeline(cfg, nil)
//	res, _ := p.Apply(img, anns, rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0xdeadbeef)))
//	fmt.Println(res.Applied(p), len(res.Annotations))
//
// Augment a whole dataset directory:
//
//	r := pipeline.NewRunner(nil, nil, log.Default())
//	defer r.Close()
//	res, _ := r.Execute(ctx, pipeline.Options{
//	    ImagesDir:       "data/images",
//	    AnnotationsPath: "data/annotations.json",
//	    Config:          cfg,
//	})
//
// # Main Packages
//
// [geom] - Axis-aligned boxes, point rotation about a centre, clipping and the
// visibility test used to drop occluded boxes.
//
// [coco] - The subset of the COCO annotation format boxaug reads and writes.
// Unknown fields pass through unchanged.
//
// [augment] - The operators and the probabilistic [augment.Pipeline] that
// gates each one with its own draw from a seeded generator.
//
// [config] - Pipeline settings from YAML, JSON or TOML files with BOXAUG_*
// environment overrides.
//
// [pipeline] - Runs a dataset through the operators on a bounded worker pool
// with per-image seeds, so output is independent of the worker count.
//
// [cache] - Content-addressed result cache with file, Redis and null backends.
//
// [journal] - Run and per-image records in SQLite or MongoDB.
//
// [observability] - Hook interfaces for pipeline, cache and HTTP events.
//
// # Testing
//
//	go test ./...                        # All tests
//	go test -tags gocv ./pkg/augment/... # Include the OpenCV warp backend
//	BOXAUG_TEST_REDIS=redis://localhost:6379/0 go test ./pkg/cache/...
//	BOXAUG_TEST_MONGO=mongodb://localhost:27017 go test ./pkg/journal/...
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/geom
// [coco]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/coco
// [augment]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/augment
// [augment.Pipeline]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/augment#Pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/config
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/cache
// [journal]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/journal
// [observability]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/boxaug/pkg/buildinfo
package pkg

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"hash/fnv"
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/augment"
	"github.com/matzehuels/boxaug/pkg/cache"
	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/config"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/observability"
)

// Augmenter is a built pipeline together with the settings that identify
// its output.
type Augmenter struct {
	Pipeline    *augment.Pipeline
	ConfigHash  string
	JPEGQuality int
}

// NewAugmenter builds the pipeline described by cfg.
func NewAugmenter(cfg config.Config) (*Augmenter, error) {
	p, err := config.BuildPipeline(cfg, nil)
	if err != nil {
		return nil, err
	}
	return &Augmenter{
		Pipeline:    p,
		ConfigHash:  cfg.Hash(),
		JPEGQuality: cfg.JPEGQuality,
	}, nil
}

// Item is one encoded image and its annotations.
type Item struct {
	// Name selects the output format by extension.
	Name        string
	Data        []byte
	Annotations []coco.Annotation
	Seed        uint64
}

// Output is the augmented form of an [Item].
type Output struct {
	Data        []byte            `json:"data"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Annotations []coco.Annotation `json:"annotations"`
	Applied     []string          `json:"applied"`
	Dropped     int               `json:"dropped"`
	CacheHit    bool              `json:"-"`
}

// SeedFor derives the seed of one image from the run seed and the image's
// file name.
func SeedFor(seed uint64, name string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ h.Sum64()
}

// NewRNG returns the random source used for one image.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Augment decodes item, runs it through a, and encodes the result in the
// format implied by item.Name. Results are cached by image content,
// annotations, configuration and seed. With refresh set the cache is not
// read.
func (r *Runner) Augment(ctx context.Context, a *Augmenter, item Item, refresh bool) (*Output, error) {
	format, err := imaging.FormatFromFilename(item.Name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupported, err, "%s", item.Name)
	}

	key, err := r.resultKey(a, item)
	if err != nil {
		return nil, err
	}
	hooks := observability.Cache()

	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var out Output
			if err := json.Unmarshal(data, &out); err == nil {
				hooks.OnCacheHit(ctx, "result")
				out.CacheHit = true
				return &out, nil
			}
			r.Logger.Debug("discarding unreadable cache entry", "image", item.Name)
		} else if err != nil {
			r.Logger.Warn("cache read failed", "image", item.Name, "error", err)
		}
	}
	hooks.OnCacheMiss(ctx, "result")

	img, err := decode(item.Data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageDecode, err, "%s", item.Name)
	}
	res, err := a.Pipeline.Apply(img, item.Annotations, NewRNG(item.Seed))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, res.Image, format, imaging.JPEGQuality(a.JPEGQuality)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeImageEncode, err, "%s", item.Name)
	}
	b := res.Image.Bounds()
	out := &Output{
		Data:        buf.Bytes(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		Annotations: res.Annotations,
		Applied:     res.Applied(a.Pipeline),
		Dropped:     res.Dropped,
	}
	if out.Annotations == nil {
		out.Annotations = []coco.Annotation{}
	}

	if data, err := json.Marshal(out); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err != nil {
			r.Logger.Warn("cache write failed", "image", item.Name, "error", err)
		} else {
			hooks.OnCacheSet(ctx, "result", len(data))
		}
	}
	return out, nil
}

// resultKey content-addresses item: the encoded bytes and the input
// annotations together form the input hash.
func (r *Runner) resultKey(a *Augmenter, item Item) (string, error) {
	anns, err := json.Marshal(item.Annotations)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash annotations")
	}
	input := make([]byte, 0, len(item.Data)+len(item.Name)+len(anns))
	input = append(input, item.Data...)
	input = append(input, item.Name...)
	input = append(input, anns...)
	return r.Keyer.ResultKey(cache.Hash(input), a.ConfigHash, item.Seed), nil
}

// decode reads any supported format into 8-bit NRGBA. EXIF orientation is
// applied, so boxes refer to the image as it is displayed. Alpha is
// discarded: colour samples are kept and every pixel is made opaque.
func decode(data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out, nil
}

package augment

import (
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/geom"
)

// Operator names used in configuration and reports.
const (
	NameRotate = "rotate"
	NameHShift = "h_shift"
	NameVShift = "v_shift"
	NameNoise  = "noise"
	NameHFlip  = "h_flip"
	NameVFlip  = "v_flip"
)

// Names lists every operator in the default application order.
var Names = []string{NameRotate, NameHShift, NameVShift, NameNoise, NameHFlip, NameVFlip}

// Border is the colour of canvas areas not covered by the source image.
var Border = color.NRGBA{A: 255}

// Transform is an augmentation operator.
//
// Modify returns a new image and a new annotation list; img and anns are not
// modified. rng supplies all randomness for the call.
type Transform interface {
	Name() string
	Modify(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*image.NRGBA, []coco.Annotation, error)
}

// remapOptions controls how moved boxes are filtered.
type remapOptions struct {
	width, height  int
	requireVisible bool
}

// remap moves every box with fn, clips it to the output frame and drops it
// when it becomes degenerate (or, with requireVisible, mostly hidden).
func remap(anns []coco.Annotation, opts remapOptions, fn func(geom.Box) geom.Box) ([]coco.Annotation, error) {
	out := make([]coco.Annotation, 0, len(anns))
	w, h := float64(opts.width), float64(opts.height)
	for i, a := range anns {
		if !a.BBox.IsFinite() {
			return nil, errors.New(errors.ErrCodeMalformedAnnotation, "annotation %d: bbox is not finite: %v", i, a.BBox.Slice())
		}
		moved := fn(a.BBox)
		clipped := geom.Clip(w, h, moved)
		if !clipped.IsValid() {
			continue
		}
		if opts.requireVisible && !geom.IsVisible(a.BBox, clipped) {
			continue
		}
		out = append(out, a.WithBox(clipped))
	}
	return out, nil
}

// checkFinite rejects annotations that no operator can process.
func checkFinite(anns []coco.Annotation) error {
	for i, a := range anns {
		if !a.BBox.IsFinite() {
			return errors.New(errors.ErrCodeMalformedAnnotation, "annotation %d: bbox is not finite: %v", i, a.BBox.Slice())
		}
	}
	return nil
}

// normalize returns img if its bounds start at the origin, or a copy that
// does otherwise. Callers must not modify the result.
func normalize(img *image.NRGBA) *image.NRGBA {
	if img.Rect.Min == (image.Point{}) {
		return img
	}
	return imaging.Clone(img)
}

func size(img *image.NRGBA) (int, int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

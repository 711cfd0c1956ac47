package augment

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/geom"
)

// HorizontalFlipper mirrors the image left to right.
type HorizontalFlipper struct{}

// Name implements [Transform].
func (HorizontalFlipper) Name() string { return NameHFlip }

// Modify implements [Transform]. rng is unused.
func (HorizontalFlipper) Modify(img *image.NRGBA, anns []coco.Annotation, _ *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	w, h := size(img)
	out, err := remap(anns, remapOptions{width: w, height: h}, func(b geom.Box) geom.Box {
		b.X = float64(w) - b.X - b.W
		return b
	})
	if err != nil {
		return nil, nil, err
	}
	return imaging.FlipH(img), out, nil
}

// VerticalFlipper mirrors the image top to bottom.
type VerticalFlipper struct{}

// Name implements [Transform].
func (VerticalFlipper) Name() string { return NameVFlip }

// Modify implements [Transform]. rng is unused.
func (VerticalFlipper) Modify(img *image.NRGBA, anns []coco.Annotation, _ *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	w, h := size(img)
	out, err := remap(anns, remapOptions{width: w, height: h}, func(b geom.Box) geom.Box {
		b.Y = float64(h) - b.Y - b.H
		return b
	})
	if err != nil {
		return nil, nil, err
	}
	return imaging.FlipV(img), out, nil
}

package augment

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/geom"
)

// Rotator rotates an image by a whole-degree angle drawn uniformly from
// [Min, Max]. The output canvas is enlarged so no part of the image is cut
// off, and each box becomes the axis-aligned bounds of its rotated corners.
type Rotator struct {
	Min, Max int
	Warper   Warper
}

// NewRotator returns a Rotator for angles in [minDeg, maxDeg]. It fails with
// [errors.ErrCodeInvalidConfig] when maxDeg < minDeg.
func NewRotator(minDeg, maxDeg int, w Warper) (*Rotator, error) {
	if maxDeg < minDeg {
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"rotation upper bound (%d) is below lower bound (%d)", maxDeg, minDeg)
	}
	if w == nil {
		w = DefaultWarper
	}
	return &Rotator{Min: minDeg, Max: maxDeg, Warper: w}, nil
}

// Name implements [Transform].
func (r *Rotator) Name() string { return NameRotate }

// Modify implements [Transform]. A Rotator built without [NewRotator] whose
// range is inverted fails with [errors.ErrCodeInvalidConfig].
func (r *Rotator) Modify(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	if r.Max < r.Min {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfig,
			"rotation upper bound (%d) is below lower bound (%d)", r.Max, r.Min)
	}
	angle := r.Min + rng.IntN(r.Max-r.Min+1)
	return r.RotateBy(img, anns, angle)
}

// RotateBy rotates by exactly degrees. Positive angles turn the image
// counter-clockwise.
func (r *Rotator) RotateBy(img *image.NRGBA, anns []coco.Annotation, degrees int) (*image.NRGBA, []coco.Annotation, error) {
	if err := checkFinite(anns); err != nil {
		return nil, nil, err
	}
	src := normalize(img)
	w, h := size(src)

	if degrees%360 == 0 {
		out, err := remap(anns, remapOptions{width: w, height: h}, func(b geom.Box) geom.Box { return b })
		return imaging.Clone(src), out, err
	}

	m, nw, nh := rotation(w, h, degrees)
	warper := r.Warper
	if warper == nil {
		warper = DefaultWarper
	}
	rotated := warper.Warp(src, m, nw, nh)

	out, err := remap(anns, remapOptions{width: nw, height: nh}, m.TransformBox)
	if err != nil {
		return nil, nil, err
	}
	return rotated, out, nil
}

// rotation returns the matrix that rotates a w×h image about its centre and
// re-centres it on the enlarged nw×nh canvas.
func rotation(w, h, degrees int) (m geom.Affine, nw, nh int) {
	cx, cy := float64(w)/2, float64(h)/2
	m = geom.RotationMatrix(cx, cy, float64(degrees))
	nw, nh = geom.RotatedSize(w, h, m)
	m = m.Translate(float64(nw)/2-cx, float64(nh)/2-cy)
	return m, nw, nh
}

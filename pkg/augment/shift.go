package augment

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
	"github.com/matzehuels/boxaug/pkg/geom"
)

// ShiftBasis selects which image dimension scales a vertical shift.
type ShiftBasis string

const (
	// ShiftBasisWidth scales vertical shifts by the image width. This is the
	// historical behaviour and the default.
	ShiftBasisWidth ShiftBasis = "width"

	// ShiftBasisHeight scales vertical shifts by the image height.
	ShiftBasisHeight ShiftBasis = "height"
)

// ParseShiftBasis converts a configuration value into a ShiftBasis. An
// empty string selects [ShiftBasisWidth].
func ParseShiftBasis(s string) (ShiftBasis, error) {
	switch ShiftBasis(s) {
	case "", ShiftBasisWidth:
		return ShiftBasisWidth, nil
	case ShiftBasisHeight:
		return ShiftBasisHeight, nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfig, "invalid shift basis: %q (must be 'width' or 'height')", s)
}

// HorizontalShifter moves the image left or right by up to Ratio·width
// pixels. Content shifted off the canvas is lost and the exposed area is
// filled with [Border].
type HorizontalShifter struct {
	Ratio float64

	// DropOccluded also drops boxes that keep no more than ten percent of
	// their area after clipping.
	DropOccluded bool
}

// NewHorizontalShifter validates ratio ∈ [0, 1].
func NewHorizontalShifter(ratio float64) (*HorizontalShifter, error) {
	if err := errors.ValidateRatio("h_shift_ratio", ratio); err != nil {
		return nil, err
	}
	return &HorizontalShifter{Ratio: ratio}, nil
}

// Name implements [Transform].
func (s *HorizontalShifter) Name() string { return NameHShift }

// Modify implements [Transform].
func (s *HorizontalShifter) Modify(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	w, _ := size(img)
	return s.ShiftBy(img, anns, drawShift(rng, s.Ratio, w))
}

// ShiftBy moves the image dx pixels to the right (left when negative).
func (s *HorizontalShifter) ShiftBy(img *image.NRGBA, anns []coco.Annotation, dx int) (*image.NRGBA, []coco.Annotation, error) {
	return shift(img, anns, dx, 0, s.DropOccluded)
}

// VerticalShifter moves the image up or down. The maximum shift is
// Ratio·width with [ShiftBasisWidth] and Ratio·height with
// [ShiftBasisHeight].
type VerticalShifter struct {
	Ratio        float64
	Basis        ShiftBasis
	DropOccluded bool
}

// NewVerticalShifter validates ratio ∈ [0, 1].
func NewVerticalShifter(ratio float64, basis ShiftBasis) (*VerticalShifter, error) {
	if err := errors.ValidateRatio("v_shift_ratio", ratio); err != nil {
		return nil, err
	}
	if basis == "" {
		basis = ShiftBasisWidth
	}
	return &VerticalShifter{Ratio: ratio, Basis: basis}, nil
}

// Name implements [Transform].
func (s *VerticalShifter) Name() string { return NameVShift }

// Modify implements [Transform].
func (s *VerticalShifter) Modify(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	w, h := size(img)
	extent := w
	if s.Basis == ShiftBasisHeight {
		extent = h
	}
	return s.ShiftBy(img, anns, drawShift(rng, s.Ratio, extent))
}

// ShiftBy moves the image dy pixels down (up when negative).
func (s *VerticalShifter) ShiftBy(img *image.NRGBA, anns []coco.Annotation, dy int) (*image.NRGBA, []coco.Annotation, error) {
	return shift(img, anns, 0, dy, s.DropOccluded)
}

// drawShift returns a whole-pixel amount drawn uniformly from
// [-ratio·extent, ratio·extent].
func drawShift(rng *rand.Rand, ratio float64, extent int) int {
	limit := ratio * float64(extent)
	return int(math.Round((rng.Float64()*2 - 1) * limit))
}

func shift(img *image.NRGBA, anns []coco.Annotation, dx, dy int, dropOccluded bool) (*image.NRGBA, []coco.Annotation, error) {
	src := normalize(img)
	w, h := size(src)

	out, err := remap(anns, remapOptions{width: w, height: h, requireVisible: dropOccluded}, func(b geom.Box) geom.Box {
		return b.Translate(float64(dx), float64(dy))
	})
	if err != nil {
		return nil, nil, err
	}
	if dx == 0 && dy == 0 {
		return imaging.Clone(src), out, nil
	}
	return translate(src, dx, dy), out, nil
}

// translate copies src onto a same-sized canvas offset by (dx, dy).
func translate(src *image.NRGBA, dx, dy int) *image.NRGBA {
	w, h := size(src)
	dst := imaging.New(w, h, Border)

	x0, x1 := max(0, dx), min(w, w+dx)
	if x0 >= x1 {
		return dst
	}
	n := (x1 - x0) * 4
	for y := max(0, dy); y < min(h, h+dy); y++ {
		si := src.PixOffset(x0-dx, y-dy)
		di := dst.PixOffset(x0, y)
		copy(dst.Pix[di:di+n], src.Pix[si:si+n])
	}
	return dst
}

package augment

import (
	"image"
	"maps"
	"slices"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/matzehuels/boxaug/pkg/geom"
)

// Warper renders src through an affine matrix onto a new width×height
// canvas filled with [Border].
//
// m maps continuous source coordinates (the top-left corner of pixel (0,0)
// is the point (0,0)) to destination coordinates, which is the convention
// used for bounding boxes.
type Warper interface {
	Warp(src *image.NRGBA, m geom.Affine, width, height int) *image.NRGBA
}

// BilinearWarper is the pure Go [Warper] built on golang.org/x/image/draw.
type BilinearWarper struct{}

// Warp implements [Warper].
func (BilinearWarper) Warp(src *image.NRGBA, m geom.Affine, width, height int) *image.NRGBA {
	dst := imaging.New(width, height, Border)
	s2d := f64.Aff3{m[0], m[1], m[2], m[3], m[4], m[5]}
	draw.BiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
	return dst
}

// DefaultWarper is used by operators that were not given a Warper.
var DefaultWarper Warper = BilinearWarper{}

// Backends maps backend names to warpers. Build-tagged files register
// additional backends here.
var Backends = map[string]Warper{
	"go": BilinearWarper{},
}

// BackendNames returns the registered backend names.
func BackendNames() []string {
	return slices.Sorted(maps.Keys(Backends))
}

package geom

import "math"

// VisibilityThreshold is the minimum fraction of the original area a box
// must keep to count as visible.
const VisibilityThreshold = 0.10

// Box is an axis-aligned rectangle in COCO [x, y, width, height] form.
type Box struct {
	X float64
	Y float64
	W float64
	H float64
}

// FromSlice builds a Box from a COCO bbox array. ok is false unless v has
// exactly four elements.
func FromSlice(v []float64) (b Box, ok bool) {
	if len(v) != 4 {
		return Box{}, false
	}
	return Box{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}

// Slice returns the box as a COCO bbox array.
func (b Box) Slice() []float64 {
	return []float64{b.X, b.Y, b.W, b.H}
}

// Right returns the x coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Area returns W·H.
func (b Box) Area() float64 { return b.W * b.H }

// IsValid reports whether the box has strictly positive width and height.
func (b Box) IsValid() bool {
	return b.W > 0 && b.H > 0
}

// IsFinite reports whether all four components are finite numbers.
func (b Box) IsFinite() bool {
	for _, v := range [4]float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Translate returns the box moved by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	b.X += dx
	b.Y += dy
	return b
}

// IsValid reports whether b has strictly positive width and height.
func IsValid(b Box) bool { return b.IsValid() }

// Clip fits b into the frame [0, imageW] × [0, imageH].
//
// A box whose top-left corner lies beyond the frame (x > imageW or y > imageH)
// becomes the zero box. A negative x (or y) shortens the width (height) by the
// overhang and resets the coordinate to 0. Width and height are then clamped
// to the remaining room and never go negative.
func Clip(imageW, imageH float64, b Box) Box {
	if b.X > imageW || b.Y > imageH {
		return Box{}
	}
	if b.X < 0 {
		b.W += b.X
		b.X = 0
	}
	if b.Y < 0 {
		b.H += b.Y
		b.Y = 0
	}
	b.W = clamp(b.W, 0, imageW-b.X)
	b.H = clamp(b.H, 0, imageH-b.Y)
	return b
}

// VisibleRatio returns area(newBox)/area(oldBox). It is 0 when oldBox has no
// area.
func VisibleRatio(oldBox, newBox Box) float64 {
	oldArea := oldBox.Area()
	if oldArea <= 0 {
		return 0
	}
	return newBox.Area() / oldArea
}

// IsVisible reports whether newBox keeps more than [VisibilityThreshold] of
// the area of oldBox.
func IsVisible(oldBox, newBox Box) bool {
	return VisibleRatio(oldBox, newBox) > VisibilityThreshold
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

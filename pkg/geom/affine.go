package geom

import "math"

// Point is a location in pixel coordinates.
type Point struct {
	X, Y float64
}

// Affine is a 2×3 affine matrix in row-major order:
//
//	| A B C |
//	| D E F |
//
// It maps (x, y) to (A·x + B·y + C, D·x + E·y + F).
type Affine [6]float64

// Identity is the affine matrix that leaves every point unchanged.
var Identity = Affine{1, 0, 0, 0, 1, 0}

// RotationMatrix returns the matrix rotating by degrees about (cx, cy).
// Positive angles rotate counter-clockwise as displayed, with y pointing down.
func RotationMatrix(cx, cy, degrees float64) Affine {
	rad := degrees * math.Pi / 180
	a := math.Cos(rad)
	b := math.Sin(rad)
	return Affine{
		a, b, (1-a)*cx - b*cy,
		-b, a, b*cx + (1-a)*cy,
	}
}

// Translation returns the matrix moving every point by (dx, dy).
func Translation(dx, dy float64) Affine {
	return Affine{1, 0, dx, 0, 1, dy}
}

// Apply maps (x, y) through m.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}

// ApplyPoint maps p through m.
func (m Affine) ApplyPoint(p Point) Point {
	x, y := m.Apply(p.X, p.Y)
	return Point{X: x, Y: y}
}

// Translate returns m followed by a translation of (dx, dy).
func (m Affine) Translate(dx, dy float64) Affine {
	m[2] += dx
	m[5] += dy
	return m
}

// Corners returns the four corners of b: top-left, top-right, bottom-left,
// bottom-right.
func Corners(b Box) [4]Point {
	return [4]Point{
		{X: b.X, Y: b.Y},
		{X: b.Right(), Y: b.Y},
		{X: b.X, Y: b.Bottom()},
		{X: b.Right(), Y: b.Bottom()},
	}
}

// TransformBox maps the corners of b through m and returns their
// axis-aligned bounds as computed by [BoundsOf].
func (m Affine) TransformBox(b Box) Box {
	corners := Corners(b)
	pts := make([]Point, len(corners))
	for i, c := range corners {
		pts[i] = m.ApplyPoint(c)
	}
	return BoundsOf(pts)
}

// BoundsOf returns the axis-aligned rectangle spanning pts, with the minimum
// rounded up and the maximum rounded down to whole pixels. A set of points
// narrower than one pixel yields a box with non-positive width or height.
func BoundsOf(pts []Point) Box {
	if len(pts) == 0 {
		return Box{}
	}
	minX, maxX := pts[0].X, pts[0].X
	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	x0, y0 := ceil(minX), ceil(minY)
	x1, y1 := floor(maxX), floor(maxY)
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}.positiveZero()
}

// RotatedSize returns the canvas size that holds a w×h image rotated by m
// without cropping. Only the linear part of m is used.
func RotatedSize(w, h int, m Affine) (int, int) {
	cos := math.Abs(m[0])
	sin := math.Abs(m[1])
	nw := float64(h)*sin + float64(w)*cos
	nh := float64(h)*cos + float64(w)*sin
	return int(floor(nw)), int(floor(nh))
}

// positiveZero replaces -0 components, which ceil produces for values just
// below zero and which would otherwise be encoded as "-0".
func (b Box) positiveZero() Box {
	for _, v := range []*float64{&b.X, &b.Y, &b.W, &b.H} {
		if *v == 0 {
			*v = 0
		}
	}
	return b
}

// roundingSlack absorbs floating point noise such as cos(90°) ≈ 6e-17 so
// that values intended to be whole numbers round the intended way.
const roundingSlack = 1e-9

func ceil(v float64) float64  { return math.Ceil(v - roundingSlack) }
func floor(v float64) float64 { return math.Floor(v + roundingSlack) }

// Package geom provides the bounding-box geometry shared by all augmentation
// operators.
//
// # Coordinates
//
// Boxes use the COCO convention: [x, y, width, height] where (x, y) is the
// top-left corner. The origin is the top-left pixel of the image, x grows to
// the right and y grows downward.
//
// # Clipping
//
// [Clip] fits a box into an image frame. A box whose top-left corner lies
// beyond the right or bottom edge collapses to the zero box; a box hanging
// over the left or top edge loses the overhanging part:
//
//	geom.Clip(640, 480, geom.Box{X: -20, Y: -10, W: 50, H: 50})
//	// → {X: 0, Y: 0, W: 30, H: 40}
//
// After clipping, [Box.IsValid] decides whether the annotation survives and
// [IsVisible] can additionally require that a meaningful part of the original
// area is still in frame.
//
// # Affine Transforms
//
// [Affine] is a 2×3 matrix mapping source pixel coordinates to destination
// coordinates. [RotationMatrix] builds the rotation about a centre point and
// [BoundsOf] re-bounds transformed corners to an axis-aligned box with
// integer pixel edges: the minimum is rounded up and the maximum rounded
// down, so the result never extends into pixels the rotated object does not
// cover at its extremes.
package geom

package geom

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRotationMatrixZero(t *testing.T) {
	m := RotationMatrix(50, 25, 0)
	for i := range m {
		if !approx(m[i], Identity[i]) {
			t.Fatalf("RotationMatrix(0) = %v, want identity", m)
		}
	}
}

func TestRotationMatrixKeepsCentre(t *testing.T) {
	m := RotationMatrix(40, 30, 37)
	x, y := m.Apply(40, 30)
	if !approx(x, 40) || !approx(y, 30) {
		t.Errorf("centre moved to (%v, %v)", x, y)
	}
}

func TestRotationMatrixDirection(t *testing.T) {
	// A point to the right of the centre ends up above it after a
	// counter-clockwise quarter turn (y points down).
	m := RotationMatrix(0, 0, 90)
	x, y := m.Apply(10, 0)
	if !approx(x, 0) || !approx(y, -10) {
		t.Errorf("Apply(10, 0) = (%v, %v), want (0, -10)", x, y)
	}
}

func TestRotatedSize(t *testing.T) {
	tests := []struct {
		deg          float64
		wantW, wantH int
	}{
		{0, 100, 50},
		{90, 50, 100},
		{180, 100, 50},
		{-90, 50, 100},
	}
	for _, tt := range tests {
		w, h := RotatedSize(100, 50, RotationMatrix(50, 25, tt.deg))
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("RotatedSize(%v°) = %dx%d, want %dx%d", tt.deg, w, h, tt.wantW, tt.wantH)
		}
	}

	w, h := RotatedSize(100, 100, RotationMatrix(50, 50, 45))
	if w != 141 || h != 141 {
		t.Errorf("RotatedSize(45°) = %dx%d, want 141x141", w, h)
	}
}

func TestTransformBoxIdentity(t *testing.T) {
	b := Box{10, 20, 30, 40}
	if got := Identity.TransformBox(b); got != b {
		t.Errorf("Identity.TransformBox(%v) = %v", b, got)
	}
}

func TestTransformBoxTranslation(t *testing.T) {
	got := Translation(5, -3).TransformBox(Box{10, 20, 30, 40})
	if want := (Box{15, 17, 30, 40}); got != want {
		t.Errorf("TransformBox = %v, want %v", got, want)
	}
}

func TestBoundsOfRounding(t *testing.T) {
	got := BoundsOf([]Point{{1.2, 3.7}, {9.8, 3.1}, {4.5, 8.9}})
	if want := (Box{2, 4, 7, 4}); got != want {
		t.Errorf("BoundsOf = %v, want %v", got, want)
	}
	if got := BoundsOf(nil); got != (Box{}) {
		t.Errorf("BoundsOf(nil) = %v, want zero", got)
	}
}

func TestBoundsOfNegativeZero(t *testing.T) {
	got := BoundsOf([]Point{{-1e-16, -6e-17}, {5, 5}})
	if got != (Box{0, 0, 5, 5}) {
		t.Fatalf("BoundsOf = %v, want {0 0 5 5}", got)
	}
	for _, v := range got.Slice() {
		if math.Signbit(v) {
			t.Errorf("BoundsOf = %v, has a negative zero", got.Slice())
		}
	}
}

func TestTransformBoxQuarterTurn(t *testing.T) {
	m := RotationMatrix(0, 0, 90)
	got := m.TransformBox(Box{0, 0, 20, 10})
	if want := (Box{0, -20, 10, 20}); got != want {
		t.Errorf("TransformBox = %v, want %v", got, want)
	}
}

//go:build gocv

package augment

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	"github.com/matzehuels/boxaug/pkg/geom"
)

func init() {
	Backends["opencv"] = OpenCVWarper{}
}

// OpenCVWarper renders with cv::warpAffine. It is available when built with
// the gocv tag and an OpenCV installation.
type OpenCVWarper struct{}

// Warp implements [Warper]. If the image cannot be converted it falls back
// to [BilinearWarper].
func (OpenCVWarper) Warp(src *image.NRGBA, m geom.Affine, width, height int) *image.NRGBA {
	in, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return BilinearWarper{}.Warp(src, m, width, height)
	}
	defer in.Close()

	mat := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer mat.Close()
	cm := pixelCentred(m)
	for i, v := range cm {
		mat.SetDoubleAt(i/3, i%3, v)
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.WarpAffineWithParams(in, &out, mat, image.Pt(width, height),
		gocv.InterpolationLinear, gocv.BorderConstant, color.RGBA{A: 255})

	img, err := out.ToImage()
	if err != nil {
		return BilinearWarper{}.Warp(src, m, width, height)
	}
	return imaging.Clone(img)
}

// pixelCentred converts m from continuous coordinates to OpenCV's pixel
// index coordinates, where pixel (i, j) is centred on the point (i, j).
func pixelCentred(m geom.Affine) geom.Affine {
	return m.Translate(0.5*(m[0]+m[1])-0.5, 0.5*(m[3]+m[4])-0.5)
}

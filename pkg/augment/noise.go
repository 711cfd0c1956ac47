package augment

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/boxaug/pkg/coco"
	"github.com/matzehuels/boxaug/pkg/errors"
)

// NoiseAdder adds zero-mean Gaussian noise with standard deviation Intensity
// (in 8-bit sample units) to each colour sample independently. Results
// saturate to [0, 255]; alpha is left alone. Annotations are returned
// unchanged.
type NoiseAdder struct {
	Intensity float64
}

// NewNoiseAdder validates intensity >= 0.
func NewNoiseAdder(intensity float64) (*NoiseAdder, error) {
	if err := errors.ValidateNonNegative("noise_intensity", intensity); err != nil {
		return nil, err
	}
	return &NoiseAdder{Intensity: intensity}, nil
}

// Name implements [Transform].
func (n *NoiseAdder) Name() string { return NameNoise }

// Modify implements [Transform].
func (n *NoiseAdder) Modify(img *image.NRGBA, anns []coco.Annotation, rng *rand.Rand) (*image.NRGBA, []coco.Annotation, error) {
	if err := checkFinite(anns); err != nil {
		return nil, nil, err
	}
	dst := imaging.Clone(img)
	out := coco.CloneAll(anns)
	if n.Intensity == 0 {
		return dst, out, nil
	}

	for i := 0; i < len(dst.Pix); i += 4 {
		for c := range 3 {
			v := float64(dst.Pix[i+c]) + rng.NormFloat64()*n.Intensity
			dst.Pix[i+c] = saturate(v)
		}
	}
	return dst, out, nil
}

func saturate(v float64) uint8 {
	return uint8(max(0, min(255, math.Round(v))))
}

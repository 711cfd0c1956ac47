package config

import (
	"github.com/matzehuels/boxaug/pkg/augment"
	"github.com/matzehuels/boxaug/pkg/errors"
)

// Warper returns the configured warp backend.
func (c Config) Warper() (augment.Warper, error) {
	name := c.Backend
	if name == "" {
		name = DefaultBackend
	}
	w, ok := augment.Backends[name]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"warp backend %q is not available in this build (available: %v)", name, augment.BackendNames())
	}
	return w, nil
}

// BuildPipeline constructs the operators named in c.Order, each gated by its
// own probability. A nil warper selects the configured backend.
func BuildPipeline(c Config, warper augment.Warper) (*augment.Pipeline, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if warper == nil {
		w, err := c.Warper()
		if err != nil {
			return nil, err
		}
		warper = w
	}
	basis, _ := augment.ParseShiftBasis(c.VShiftBasis)

	stages := make([]augment.Stage, 0, len(c.Order))
	for _, name := range c.Order {
		t, err := c.operator(name, basis, warper)
		if err != nil {
			return nil, err
		}
		p, _ := c.Probability(name)
		stages = append(stages, augment.Stage{Transform: t, Probability: p})
	}
	return augment.NewPipeline(stages...)
}

func (c Config) operator(name string, basis augment.ShiftBasis, w augment.Warper) (augment.Transform, error) {
	switch name {
	case augment.NameRotate:
		return augment.NewRotator(c.RotationLB, c.RotationUB, w)
	case augment.NameHShift:
		s, err := augment.NewHorizontalShifter(c.HShiftRatio)
		if err != nil {
			return nil, err
		}
		s.DropOccluded = c.DropOccluded
		return s, nil
	case augment.NameVShift:
		s, err := augment.NewVerticalShifter(c.VShiftRatio, basis)
		if err != nil {
			return nil, err
		}
		s.DropOccluded = c.DropOccluded
		return s, nil
	case augment.NameNoise:
		return augment.NewNoiseAdder(c.NoiseIntensity)
	case augment.NameHFlip:
		return augment.HorizontalFlipper{}, nil
	case augment.NameVFlip:
		return augment.VerticalFlipper{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown operator %q", name)
}

// Package config holds the augmentation configuration shared by the CLI, the
// dataset runner and the HTTP server.
//
// A configuration is a flat set of keys. Files may be YAML, JSON or TOML:
//
//	rotation_lb: -30
//	rotation_ub: 30
//	h_shift_ratio: 0.2
//	v_shift_ratio: 0.2
//	noise_intensity: 10
//	rotation_prob: 0.5
//	h_shift_prob: 0.5
//	v_shift_prob: 0.5
//	noise_prob: 0.5
//	h_flip_prob: 0.5
//	v_flip_prob: 0.5
//
// Every key may be overridden from the environment with a BOXAUG_ prefix,
// for example BOXAUG_NOISE_PROB=0.2. Keys missing from the file keep their
// [Default] values.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/matzehuels/boxaug/pkg/augment"
	"github.com/matzehuels/boxaug/pkg/errors"
)

// Config configures one augmentation pipeline.
type Config struct {
	RotationLB int `mapstructure:"rotation_lb" toml:"rotation_lb" yaml:"rotation_lb" json:"rotation_lb"`
	RotationUB int `mapstructure:"rotation_ub" toml:"rotation_ub" yaml:"rotation_ub" json:"rotation_ub"`

	HShiftRatio float64 `mapstructure:"h_shift_ratio" toml:"h_shift_ratio" yaml:"h_shift_ratio" json:"h_shift_ratio"`
	VShiftRatio float64 `mapstructure:"v_shift_ratio" toml:"v_shift_ratio" yaml:"v_shift_ratio" json:"v_shift_ratio"`

	// VShiftBasis is "width" (default) or "height".
	VShiftBasis string `mapstructure:"v_shift_basis" toml:"v_shift_basis" yaml:"v_shift_basis" json:"v_shift_basis"`

	NoiseIntensity float64 `mapstructure:"noise_intensity" toml:"noise_intensity" yaml:"noise_intensity" json:"noise_intensity"`

	RotationProb float64 `mapstructure:"rotation_prob" toml:"rotation_prob" yaml:"rotation_prob" json:"rotation_prob"`
	HShiftProb   float64 `mapstructure:"h_shift_prob" toml:"h_shift_prob" yaml:"h_shift_prob" json:"h_shift_prob"`
	VShiftProb   float64 `mapstructure:"v_shift_prob" toml:"v_shift_prob" yaml:"v_shift_prob" json:"v_shift_prob"`
	NoiseProb    float64 `mapstructure:"noise_prob" toml:"noise_prob" yaml:"noise_prob" json:"noise_prob"`
	HFlipProb    float64 `mapstructure:"h_flip_prob" toml:"h_flip_prob" yaml:"h_flip_prob" json:"h_flip_prob"`
	VFlipProb    float64 `mapstructure:"v_flip_prob" toml:"v_flip_prob" yaml:"v_flip_prob" json:"v_flip_prob"`

	// DropOccluded makes the shifters drop boxes that keep ten percent or
	// less of their area.
	DropOccluded bool `mapstructure:"drop_occluded" toml:"drop_occluded" yaml:"drop_occluded" json:"drop_occluded"`

	// Order lists operator names in application order.
	Order []string `mapstructure:"order" toml:"order" yaml:"order" json:"order"`

	// Backend selects the warp implementation used by rotation.
	Backend string `mapstructure:"backend" toml:"backend" yaml:"backend" json:"backend"`

	Seed        uint64 `mapstructure:"seed" toml:"seed" yaml:"seed" json:"seed"`
	Workers     int    `mapstructure:"workers" toml:"workers" yaml:"workers" json:"workers"`
	JPEGQuality int    `mapstructure:"jpeg_quality" toml:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// Default values.
const (
	DefaultSeed        = uint64(42)
	DefaultWorkers     = 1
	DefaultJPEGQuality = 95
	DefaultBackend     = "go"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RotationLB:     -30,
		RotationUB:     30,
		HShiftRatio:    0.2,
		VShiftRatio:    0.2,
		VShiftBasis:    string(augment.ShiftBasisWidth),
		NoiseIntensity: 10,
		RotationProb:   0.5,
		HShiftProb:     0.5,
		VShiftProb:     0.5,
		NoiseProb:      0.5,
		HFlipProb:      0.5,
		VFlipProb:      0.5,
		Order:          slices.Clone(augment.Names),
		Backend:        DefaultBackend,
		Seed:           DefaultSeed,
		Workers:        DefaultWorkers,
		JPEGQuality:    DefaultJPEGQuality,
	}
}

// Probability returns the trigger probability configured for the named
// operator.
func (c Config) Probability(name string) (float64, bool) {
	switch name {
	case augment.NameRotate:
		return c.RotationProb, true
	case augment.NameHShift:
		return c.HShiftProb, true
	case augment.NameVShift:
		return c.VShiftProb, true
	case augment.NameNoise:
		return c.NoiseProb, true
	case augment.NameHFlip:
		return c.HFlipProb, true
	case augment.NameVFlip:
		return c.VFlipProb, true
	}
	return 0, false
}

// Validate reports the first invalid setting as an INVALID_CONFIG error.
func (c Config) Validate() error {
	if c.RotationUB < c.RotationLB {
		return errors.New(errors.ErrCodeInvalidConfig,
			"rotation_ub (%d) is below rotation_lb (%d)", c.RotationUB, c.RotationLB)
	}
	if err := errors.ValidateRatio("h_shift_ratio", c.HShiftRatio); err != nil {
		return err
	}
	if err := errors.ValidateRatio("v_shift_ratio", c.VShiftRatio); err != nil {
		return err
	}
	if _, err := augment.ParseShiftBasis(c.VShiftBasis); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("noise_intensity", c.NoiseIntensity); err != nil {
		return err
	}
	probs := []struct {
		key string
		p   float64
	}{
		{"rotation_prob", c.RotationProb},
		{"h_shift_prob", c.HShiftProb},
		{"v_shift_prob", c.VShiftProb},
		{"noise_prob", c.NoiseProb},
		{"h_flip_prob", c.HFlipProb},
		{"v_flip_prob", c.VFlipProb},
	}
	for _, p := range probs {
		if err := errors.ValidateProbability(p.key, p.p); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(c.Order))
	for _, name := range c.Order {
		if _, ok := c.Probability(name); !ok {
			return errors.New(errors.ErrCodeInvalidConfig,
				"order: unknown operator %q (valid: %v)", name, augment.Names)
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidConfig, "order: operator %q listed twice", name)
		}
		seen[name] = true
	}

	if c.Backend != "" {
		if _, ok := augment.Backends[c.Backend]; !ok {
			return errors.New(errors.ErrCodeInvalidConfig,
				"backend: unknown warp backend %q (available: %v)", c.Backend, augment.BackendNames())
		}
	}
	if c.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be >= 0, got %d", c.Workers)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "jpeg_quality must be in [1, 100], got %d", c.JPEGQuality)
	}
	return nil
}

// Hash identifies the settings that affect augmentation output. Workers is
// excluded because results do not depend on it.
func (c Config) Hash() string {
	c.Workers = 0
	if c.Order == nil {
		c.Order = []string{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		data = []byte(fmt.Sprintf("%+v", c))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

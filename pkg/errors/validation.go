package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateProbability checks that p is a probability in [0, 1].
// name is the configuration key reported in the error.
func ValidateProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in [0, 1], got %v", name, p)
	}
	return nil
}

// ValidateRatio checks that a shift ratio is in [0, 1].
func ValidateRatio(name string, r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return New(ErrCodeInvalidConfig, "%s must be in [0, 1], got %v", name, r)
	}
	return nil
}

// ValidateNonNegative checks that v is a finite number ≥ 0.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidConfig, "%s must be >= 0, got %v", name, v)
	}
	return nil
}

// ValidateFileName validates an image file name taken from a dataset before
// it is joined onto an output directory.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 255 characters
//   - No control characters or null bytes
//   - No path separators (must be a plain base name)
//   - Not "." or ".."
func ValidateFileName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}

	if len(name) > 255 {
		return New(ErrCodeInvalidPath, "file name too long (max 255 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "file name cannot contain path separators: %q", name)
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "file name cannot be %q", name)
	}

	return nil
}

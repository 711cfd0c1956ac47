package cache

// KeyPrefix is prepended to every key produced by [DefaultKeyer].
const KeyPrefix = "boxaug:"

// Keyer generates cache keys. Implementations must be deterministic.
type Keyer interface {
	// ResultKey identifies the augmented result of one image.
	ResultKey(imageHash, configHash string, seed uint64) string
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey implements [Keyer].
func (DefaultKeyer) ResultKey(imageHash, configHash string, seed uint64) string {
	return hashKey(KeyPrefix+"result", imageHash, configHash, seed)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix, giving a caller its own
// namespace in a shared backend. The HTTP server scopes its keys this way so
// API results never collide with CLI runs sharing the same Redis instance.
//
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer selects
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ResultKey implements [Keyer].
func (k *ScopedKeyer) ResultKey(imageHash, configHash string, seed uint64) string {
	return k.prefix + k.inner.ResultKey(imageHash, configHash, seed)
}

package cache

// ScopedKeyer wraps a Keyer with a prefix so independent scenes sharing one
// cache directory cannot collide.
//
// Example usage:
//
//	sceneKeyer := NewScopedKeyer(NewDefaultKeyer(), "scene:"+sceneHash+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// DataCostKey generates a prefixed key for data-cost caching.
func (k *ScopedKeyer) DataCostKey(meshHash, viewsHash string, opts DataCostKeyOpts) string {
	return k.prefix + k.inner.DataCostKey(meshHash, viewsHash, opts)
}

// LabelingKey generates a prefixed key for labeling caching.
func (k *ScopedKeyer) LabelingKey(costsHash string, smoothnessWeight float64) string {
	return k.prefix + k.inner.LabelingKey(costsHash, smoothnessWeight)
}

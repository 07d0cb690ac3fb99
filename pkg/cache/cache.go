// Package cache provides content-addressed caching for expensive pipeline
// intermediates, most importantly per-face data costs.
package cache

import (
	"context"
	"time"
)

// TTLDataCosts bounds how long cached data-cost matrices live. Costs are
// pure functions of mesh and views, so the TTL is generous; it only keeps
// the cache directory from growing without bound.
const TTLDataCosts = 30 * 24 * time.Hour

// Cache is the storage backend interface. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// DataCostKeyOpts captures every input that influences computed data costs.
// Two runs with equal mesh hash, view hash and opts may share a cache entry.
type DataCostKeyOpts struct {
	NumFaces int
	NumViews int
}

// Keyer generates cache keys for pipeline intermediates.
type Keyer interface {
	// DataCostKey keys the data-cost matrix by mesh content, view-set
	// content and the computation parameters.
	DataCostKey(meshHash, viewsHash string, opts DataCostKeyOpts) string

	// LabelingKey keys an optimized labeling vector by the data costs it
	// was derived from and the optimizer parameters.
	LabelingKey(costsHash string, smoothnessWeight float64) string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DataCostKey generates a key for data-cost caching.
func (k *DefaultKeyer) DataCostKey(meshHash, viewsHash string, opts DataCostKeyOpts) string {
	return hashKey("datacost", meshHash, viewsHash, opts.NumFaces, opts.NumViews)
}

// LabelingKey generates a key for labeling caching.
func (k *DefaultKeyer) LabelingKey(costsHash string, smoothnessWeight float64) string {
	return hashKey("labeling", costsHash, smoothnessWeight)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

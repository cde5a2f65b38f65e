package places

import (
	"sync"

	"github.com/trailpost/trailpost/pkg/geo"
)

// ProximityCache caches provider responses keyed by query point. A lookup
// hits when a cached key is within a distance threshold of the query, not
// only on exact coordinates, because GPS fixes for the same real place vary
// continuously. Entries are scanned in insertion order; query volume per
// process is small enough that the linear scan is not worth replacing with
// a spatial index.
type ProximityCache struct {
	mu      sync.Mutex
	entries []cacheEntry
}

type cacheEntry struct {
	key        geo.Point
	candidates []Candidate
}

// NewProximityCache creates an empty cache.
func NewProximityCache() *ProximityCache {
	return &ProximityCache{}
}

// Lookup returns the value of the first cached key strictly within threshold
// meters of point. A qualifying entry whose value is empty is reported as a
// miss: a cached "no results" answer must never stop a later re-query.
func (c *ProximityCache) Lookup(point geo.Point, threshold float64) ([]Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if point.Distance(e.key) < threshold {
			if len(e.candidates) == 0 {
				return nil, false
			}
			return e.candidates, true
		}
	}
	return nil, false
}

// Insert stores candidates under point. An existing key with identical
// coordinates is overwritten; otherwise a new entry is appended. Empty
// values are stored as-is. There is no eviction and no capacity bound.
func (c *ProximityCache) Insert(point geo.Point, candidates []Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, e := range c.entries {
		if point.SameCoordinates(e.key) {
			c.entries[i].candidates = candidates
			return
		}
	}
	c.entries = append(c.entries, cacheEntry{key: point, candidates: candidates})
}

// Len returns the number of cached entries.
func (c *ProximityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

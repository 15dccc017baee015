package spectral

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

type cacheKey struct {
	channel int
	hash    uint64
}

// Cache memoizes per-channel power spectra keyed by window content. Entries
// are evicted first-in first-out once capacity is reached. The cache is an
// explicit object owned by a single Analyzer; nothing here is process-wide,
// so analyzers for different devices never cross-contaminate results.
type Cache struct {
	capacity int
	entries  map[cacheKey][]float64
	order    []cacheKey
	hits     uint64
	misses   uint64
}

// NewCache creates a cache bounded at capacity entries. Capacities below
// one are clamped to one so put never has to evict from an empty ring.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[cacheKey][]float64, capacity),
	}
}

// hashSamples fingerprints the raw window content of one channel.
func hashSamples(samples []float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, v := range samples {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		d.Write(buf[:])
	}
	return d.Sum64()
}

func (c *Cache) get(key cacheKey) ([]float64, bool) {
	spectrum, ok := c.entries[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return spectrum, ok
}

func (c *Cache) put(key cacheKey, spectrum []float64) {
	if _, exists := c.entries[key]; exists {
		return
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = spectrum
	c.order = append(c.order, key)
}

// Len returns the current number of cached spectra.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Stats reports cache hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits, c.misses
}

// Clear drops every entry and resets the eviction order.
func (c *Cache) Clear() {
	c.entries = make(map[cacheKey][]float64, c.capacity)
	c.order = c.order[:0]
}

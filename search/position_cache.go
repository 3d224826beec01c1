package search

import (
	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/zobrist"
)

// entrySize is a rough per-position cost: the bucket entry plus the node
// it keeps alive.
const entrySize = 256

// minCapacity applies when total memory cannot be determined.
const minCapacity = 1 << 20

type cacheEntry struct {
	sig  deal.Signature
	node *Node
}

// PositionCache remembers the first node that reached each position.
// Lookups compare full signatures, so a hash collision never conflates two
// positions. The cache is not safe for concurrent use.
type PositionCache struct {
	zobrist  *zobrist.Zobrist
	buckets  map[uint64][]cacheEntry
	size     int
	capacity int

	created  uint64
	lookups  uint64
	hits     uint64
	unusable uint64
	full     uint64
	// "type 2" collisions: distinct positions in the same bucket.
	t2collisions uint64
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Size         int    `yaml:"size"`
	Capacity     int    `yaml:"capacity"`
	Created      uint64 `yaml:"created"`
	Lookups      uint64 `yaml:"lookups"`
	Hits         uint64 `yaml:"hits"`
	Unusable     uint64 `yaml:"unusable"`
	Full         uint64 `yaml:"full"`
	T2Collisions uint64 `yaml:"t2collisions"`
}

// NewPositionCache sizes the cache to a fraction of system memory.
func NewPositionCache(fractionOfMemory float64) *PositionCache {
	totalMem := memory.TotalMemory()
	capacity := int(fractionOfMemory * float64(totalMem) / entrySize)
	if capacity < minCapacity {
		capacity = minCapacity
	}
	c := newPositionCacheWithCapacity(capacity)
	log.Debug().Int("capacity", capacity).
		Float64("fraction-of-memory", fractionOfMemory).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("position-cache-size")
	return c
}

func newPositionCacheWithCapacity(capacity int) *PositionCache {
	z := &zobrist.Zobrist{}
	z.Initialize()
	return &PositionCache{
		zobrist:  z,
		buckets:  make(map[uint64][]cacheEntry),
		capacity: capacity,
	}
}

// RecordIfNew returns the node that first reached pos, and true. If pos
// was never seen it records n and returns false. A stored node is never
// replaced.
func (c *PositionCache) RecordIfNew(n *Node, pos *deal.Deal) (*Node, bool) {
	sig := pos.Signature()
	key := c.zobrist.Hash(sig)
	c.lookups++
	bucket := c.buckets[key]
	for _, e := range bucket {
		if e.sig == sig {
			c.hits++
			return e.node, true
		}
	}
	if len(bucket) > 0 {
		c.t2collisions++
	}
	if c.size >= c.capacity {
		c.full++
		return nil, false
	}
	c.buckets[key] = append(bucket, cacheEntry{sig: sig, node: n})
	c.size++
	c.created++
	return nil, false
}

func (c *PositionCache) markUnusable() {
	c.unusable++
}

func (c *PositionCache) Len() int {
	return c.size
}

func (c *PositionCache) Stats() CacheStats {
	return CacheStats{
		Size:         c.size,
		Capacity:     c.capacity,
		Created:      c.created,
		Lookups:      c.lookups,
		Hits:         c.hits,
		Unusable:     c.unusable,
		Full:         c.full,
		T2Collisions: c.t2collisions,
	}
}

// Reset forgets every recorded position and zeroes the counters.
func (c *PositionCache) Reset() {
	clear(c.buckets)
	c.size = 0
	c.created = 0
	c.lookups = 0
	c.hits = 0
	c.unusable = 0
	c.full = 0
	c.t2collisions = 0
}

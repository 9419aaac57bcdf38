package gcache

import (
	"sync/atomic"

	"github.com/gcache/gcache/hash"
)

// ghostMeta is the payload GhostCache's inner LRUCache stores per node: the
// bucket index (into the configured size spectrum) that node currently
// belongs to, counting from the MRU end.
type ghostMeta struct {
	sizeIdx uint32
}

// GhostCache is a metadata-only cache: it never stores real values, only
// enough bookkeeping to report, for every size in a configured spectrum
// {min, min+tick, ..., max}, the hit rate a real LRU cache of that size
// would have achieved against the same access stream. It does this with a
// single LRU refresh per access, amortized O(1), by maintaining boundary
// pointers into the LRU list — one per size below max — plus a histogram
// of reuse distances bucketed by which size band they fall in.
type GhostCache[K comparable] struct {
	cache *LRUCache[K, ghostMeta]

	tick, minSize, maxSize uint32
	n                       uint32 // number of sizes in the spectrum

	// boundaries[k] points at the oldest node currently belonging to size
	// bucket k (the node that would be evicted first from a cache of size
	// minSize+k*tick), or nil if fewer than that many nodes have ever been
	// inserted. Length n-1: there is no boundary past the largest size.
	boundaries []*Node[K, ghostMeta]

	// reuseDistances[k] counts accesses whose reuse distance fell in size
	// band k. reuseCount is the total number of accesses counted
	// (including misses, which fall in no band).
	reuseDistances []uint64
	reuseCount     uint64

	// cachesStat is rebuilt lazily from reuseDistances on query, via
	// prefix sum, whenever it's found stale (hit+miss != reuseCount).
	cachesStat []CacheStat

	hasher hash.Hasher[K]
}

// NewGhostCache constructs a GhostCache over the size spectrum
// {min, min+tick, ..., max}. tick must be positive, min must exceed 1, and
// (max-min) must be an exact multiple of tick yielding at least 3 sizes.
func NewGhostCache[K comparable](tick, minSize, maxSize uint32, hasher hash.Hasher[K]) (*GhostCache[K], error) {
	if tick == 0 || minSize <= 1 || maxSize < minSize || (maxSize-minSize)%tick != 0 {
		return nil, invalidSpectrumError(tick, minSize, maxSize)
	}
	n := (maxSize-minSize)/tick + 1
	if n < 3 {
		return nil, invalidSpectrumError(tick, minSize, maxSize)
	}
	inner, err := NewLRUCache[K, ghostMeta](int(maxSize), hasher)
	if err != nil {
		return nil, err
	}
	return &GhostCache[K]{
		cache:          inner,
		tick:           tick,
		minSize:        minSize,
		maxSize:        maxSize,
		n:              n,
		boundaries:     make([]*Node[K, ghostMeta], n-1),
		reuseDistances: make([]uint64, n),
		cachesStat:     make([]CacheStat, n),
		hasher:         hasher,
	}, nil
}

// Tick, MinSize, MaxSize, and NumSizes expose the configured spectrum.
func (g *GhostCache[K]) Tick() uint32     { return g.tick }
func (g *GhostCache[K]) MinSize() uint32  { return g.minSize }
func (g *GhostCache[K]) MaxSize() uint32  { return g.maxSize }
func (g *GhostCache[K]) NumSizes() uint32 { return g.n }

// Size returns the number of distinct keys the ghost cache has ever seen,
// up to maxSize.
func (g *GhostCache[K]) Size() int { return g.cache.Size() }

// Access feeds one key through the ghost cache under the given mode,
// updating every size's hit/miss counters in amortized O(1) time.
func (g *GhostCache[K]) Access(key K, mode AccessMode) {
	h := g.hasher.Hash(key)
	node, successor := g.cache.refresh(key, h)
	assert(node != nil, "ghost cache's inner LRU unexpectedly ran out of capacity")

	var k uint32
	if successor != nil {
		// Hit: node was already present. k is its size bucket *before*
		// this access moves it to the MRU position.
		k = node.value.sizeIdx
		if k < g.n-1 && g.boundaries[k] == node {
			g.boundaries[k] = successor
		}
	} else {
		// Miss: a brand new node was inserted (possibly evicting the
		// previous LRU tail). Recompute which bucket the new LRU length
		// lands on, and claim a fresh boundary if it lands exactly on a
		// tick-aligned size.
		s := uint32(g.cache.Size())
		if s > g.minSize {
			k = ceilDivUint32(s-g.minSize, g.tick)
		}
		if k < g.n-1 && s == g.minSize+k*g.tick {
			g.boundaries[k] = g.cache.lru.next
		}
	}

	// Every boundary below k has fallen one bucket further from the MRU
	// end; bump its node's bucket and slide the boundary to the next
	// (newer) node.
	for i := uint32(0); i < k; i++ {
		if b := g.boundaries[i]; b != nil {
			b.value.sizeIdx++
			g.boundaries[i] = b.next
		}
	}
	node.value.sizeIdx = 0

	switch mode {
	case Default:
		if successor != nil {
			g.reuseDistances[k]++
		}
		g.reuseCount++
	case AsMiss:
		g.reuseCount++
	case AsHit:
		g.reuseDistances[0]++
		g.reuseCount++
	case Noop:
	}
}

// GetStat returns the materialized hit/miss counts for size, which must be
// a point in the configured spectrum (minSize <= size <= maxSize,
// tick-aligned). Violating that is a programmer error (see debug.go).
func (g *GhostCache[K]) GetStat(size uint32) CacheStat {
	assert(size >= g.minSize && size <= g.maxSize && (size-g.minSize)%g.tick == 0,
		"size is not a tick-aligned point in the configured spectrum")
	k := (size - g.minSize) / g.tick
	if g.cachesStat[k].hitCnt+g.cachesStat[k].missCnt != g.reuseCount {
		g.rebuildStats()
	}
	return g.cachesStat[k]
}

// rebuildStats rewrites every materialized CacheStat via atomic stores, not
// plain assignment, for the same reason AddHit/AddMiss do: it's the only
// other writer of cachesStat's counters, so SnapshotAtomic's cross-goroutine
// safety claim has to hold here too.
func (g *GhostCache[K]) rebuildStats() {
	var cum uint64
	for k := uint32(0); k < g.n; k++ {
		cum += g.reuseDistances[k]
		atomic.StoreUint64(&g.cachesStat[k].hitCnt, cum)
		atomic.StoreUint64(&g.cachesStat[k].missCnt, g.reuseCount-cum)
	}
}

// ResetStat zeroes the histogram and access count. The LRU list, and
// therefore every node's current size bucket, is untouched.
func (g *GhostCache[K]) ResetStat() {
	for i := range g.reuseDistances {
		g.reuseDistances[i] = 0
	}
	for i := range g.cachesStat {
		g.cachesStat[i].Reset()
	}
	g.reuseCount = 0
}

// BoundaryHandles returns the current boundary pointers, one per size
// below maxSize, for inspection in tests. A null handle at index k means
// fewer than minSize+k*tick distinct keys have been seen yet.
func (g *GhostCache[K]) BoundaryHandles() []Handle[K, ghostMeta] {
	out := make([]Handle[K, ghostMeta], len(g.boundaries))
	for i, b := range g.boundaries {
		out[i] = Handle[K, ghostMeta]{node: b}
	}
	return out
}

// ForEachLRU visits keys from LRU-oldest to LRU-newest, for dumping a
// checkpoint to replay into another GhostCache via Access(key, Noop).
func (g *GhostCache[K]) ForEachLRU(fn func(key K)) {
	g.cache.ForEachLRU(func(h Handle[K, ghostMeta]) { fn(h.Key()) })
}

func ceilDivUint32(a, b uint32) uint32 {
	return (a + b - 1) / b
}

package gcache

import (
	"sync/atomic"

	"github.com/gcache/gcache/hash"
)

// kvMeta is the payload SampledGhostKvCache's inner LRUCache stores per
// node: its current size bucket, same as ghostMeta, plus the byte size of
// the value it's currently standing in for.
type kvMeta struct {
	sizeIdx uint32
	kvSize  uint32
}

// KvCurvePoint is one sample of a miss-rate curve indexed by aggregate
// byte footprint rather than entry count.
type KvCurvePoint struct {
	// Count is the number of entries the curve point covers, scaled back
	// up by 2^shift.
	Count uint64
	// Size is the cumulative byte footprint of those entries, scaled back
	// up by 2^shift.
	Size uint64
	Stat CacheStat
}

// SampledGhostKvCache is GhostCache's hash-sampled, byte-size-aware
// sibling: it tracks a kv_size per entry and exposes a miss-rate curve
// keyed by cumulative bytes instead of entry count. Unlike GhostCache,
// sampling is intrinsic rather than a separate wrapper, since the curve's
// byte accounting and the sampling scale interact (see GetCacheStatCurve).
type SampledGhostKvCache[K comparable] struct {
	cache *LRUCache[K, kvMeta]

	shift                  uint
	tick, minSize, maxSize uint32 // scaled-down (internal) spectrum
	n                      uint32

	boundaries     []*Node[K, kvMeta]
	reuseDistances []uint64
	reuseCount     uint64
	cachesStat     []CacheStat

	hasher hash.Hasher[K]
}

// NewSampledGhostKvCache constructs a SampledGhostKvCache. As with
// SampledGhostCache, tick/minSize/maxSize must each be a multiple of
// 2^shift and ceil_log2(maxSize)+shift must not exceed 32.
func NewSampledGhostKvCache[K comparable](tick, minSize, maxSize uint32, shift uint, hasher hash.Hasher[K]) (*SampledGhostKvCache[K], error) {
	scale := uint32(1) << shift
	if scale == 0 || tick%scale != 0 || minSize%scale != 0 || maxSize%scale != 0 {
		return nil, sampleShiftTooLargeError(shift, maxSize)
	}
	if uint(ceilLog2(maxSize))+shift > 32 {
		return nil, sampleShiftTooLargeError(shift, maxSize)
	}
	scaledTick, scaledMin, scaledMax := tick/scale, minSize/scale, maxSize/scale
	if scaledTick == 0 || scaledMin <= 1 || scaledMax < scaledMin || (scaledMax-scaledMin)%scaledTick != 0 {
		return nil, invalidSpectrumError(scaledTick, scaledMin, scaledMax)
	}
	n := (scaledMax-scaledMin)/scaledTick + 1
	if n < 3 {
		return nil, invalidSpectrumError(scaledTick, scaledMin, scaledMax)
	}
	cache, err := NewLRUCache[K, kvMeta](int(scaledMax), hasher)
	if err != nil {
		return nil, err
	}
	return &SampledGhostKvCache[K]{
		cache:          cache,
		shift:          shift,
		tick:           scaledTick,
		minSize:        scaledMin,
		maxSize:        scaledMax,
		n:              n,
		boundaries:     make([]*Node[K, kvMeta], n-1),
		reuseDistances: make([]uint64, n),
		cachesStat:     make([]CacheStat, n),
		hasher:         hasher,
	}, nil
}

// Shift returns the configured sampling shift S.
func (g *SampledGhostKvCache[K]) Shift() uint { return g.shift }

// Access feeds one (key, kv_size) pair through the cache under the given
// mode. kvSize is stamped onto the node whether the access is a hit or a
// miss. Accesses that fail the sampling gate are dropped entirely.
func (g *SampledGhostKvCache[K]) Access(key K, kvSize uint32, mode AccessMode) {
	h := g.hasher.Hash(key)
	if g.shift > 0 && h>>(32-g.shift) != 0 {
		return
	}
	node, successor := g.cache.refresh(key, h)
	assert(node != nil, "sampled KV ghost cache's inner LRU unexpectedly ran out of capacity")
	node.value.kvSize = kvSize

	var k uint32
	if successor != nil {
		k = node.value.sizeIdx
		if k < g.n-1 && g.boundaries[k] == node {
			g.boundaries[k] = successor
		}
	} else {
		s := uint32(g.cache.Size())
		if s > g.minSize {
			k = ceilDivUint32(s-g.minSize, g.tick)
		}
		if k < g.n-1 && s == g.minSize+k*g.tick {
			g.boundaries[k] = g.cache.lru.next
		}
	}
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

// UpdateSize overwrites an already-present key's kv_size without
// performing an LRU refresh. Returns false if key is absent. Calling it
// twice with the same size is a no-op beyond the redundant write: LRU
// order is never touched.
func (g *SampledGhostKvCache[K]) UpdateSize(key K, newSize uint32) bool {
	h := g.hasher.Hash(key)
	n := g.cache.table.Lookup(key, h)
	if n == nil {
		return false
	}
	n.value.kvSize = newSize
	return true
}

// GetCacheStatCurve walks the LRU list from MRU toward LRU, accumulating
// entry count and byte size, and emits one point per tick boundary. If the
// walk ends between tick boundaries (the working-set size is not itself a
// point of the spectrum), one final point is emitted at the next
// tick-aligned count above the working-set size, carrying the same
// cumulative byte size as the last real entry. A working set that ends
// exactly on a tick boundary gets no extra point.
func (g *SampledGhostKvCache[K]) GetCacheStatCurve() []KvCurvePoint {
	scale := uint64(1) << g.shift
	var curve []KvCurvePoint
	var count, size uint64
	nextTick := g.minSize
	g.cache.ForEachMRU(func(h Handle[K, kvMeta]) {
		count++
		size += uint64(h.Value().kvSize)
		if uint32(count) == nextTick {
			curve = append(curve, KvCurvePoint{
				Count: count * scale,
				Size:  size * scale,
				Stat:  g.statAt(uint32(count)),
			})
			nextTick += g.tick
		}
	})
	if count > 0 && (len(curve) == 0 || curve[len(curve)-1].Count != count*scale) {
		curve = append(curve, KvCurvePoint{
			Count: uint64(nextTick) * scale,
			Size:  size * scale,
			Stat:  g.statAt(uint32(count)),
		})
	}
	return curve
}

func (g *SampledGhostKvCache[K]) statAt(count uint32) CacheStat {
	var k uint32
	if count > g.minSize {
		k = ceilDivUint32(count-g.minSize, g.tick)
	}
	if k >= g.n {
		k = g.n - 1
	}
	if g.cachesStat[k].hitCnt+g.cachesStat[k].missCnt != g.reuseCount {
		g.rebuildStats()
	}
	return g.cachesStat[k]
}

// rebuildStats rewrites every materialized CacheStat via atomic stores; see
// GhostCache.rebuildStats for why.
func (g *SampledGhostKvCache[K]) rebuildStats() {
	var cum uint64
	for k := uint32(0); k < g.n; k++ {
		cum += g.reuseDistances[k]
		atomic.StoreUint64(&g.cachesStat[k].hitCnt, cum)
		atomic.StoreUint64(&g.cachesStat[k].missCnt, g.reuseCount-cum)
	}
}

// ResetStat zeroes the histogram and access count without touching LRU
// order or kv_size payloads.
func (g *SampledGhostKvCache[K]) ResetStat() {
	for i := range g.reuseDistances {
		g.reuseDistances[i] = 0
	}
	for i := range g.cachesStat {
		g.cachesStat[i].Reset()
	}
	g.reuseCount = 0
}

package gcache

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/gcache/gcache/hash"
)

// rngSeed fixes the PRNG seed for reproducibility across runs, matching the
// teacher's own fixed-seed convention in its benchmark harness.
const rngSeed = 1

func boundaryKeys(g *GhostCache[uint32]) []any {
	var out []any
	for _, h := range g.BoundaryHandles() {
		if h.IsNull() {
			out = append(out, nil)
		} else {
			out = append(out, h.Key())
		}
	}
	return out
}

func checkStat(t *testing.T, g *GhostCache[uint32], size uint32, hit, total uint64) {
	t.Helper()
	s := g.GetStat(size)
	h, m := s.Snapshot()
	if h != hit || h+m != total {
		t.Fatalf("stat(%d) = %d/%d, want %d/%d", size, h, h+m, hit, total)
	}
}

// TestGhostCacheScenario walks the spectrum {3,4,5,6} through the exact
// access sequence and expected boundaries/stats used to validate the
// reference implementation's ghost cache.
func TestGhostCacheScenario(t *testing.T) {
	g, err := NewGhostCache[uint32](1, 3, 6, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewGhostCache: %v", err)
	}

	for _, k := range []uint32{0, 1, 2, 3} {
		g.Access(k, Default)
	}
	if got, want := boundaryKeys(g), []any{uint32(1), uint32(0), nil}; !reflect.DeepEqual(got, want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	for _, size := range []uint32{3, 4, 5, 6} {
		checkStat(t, g, size, 0, 4)
	}

	for _, k := range []uint32{4, 5} {
		g.Access(k, Default)
	}
	if got, want := boundaryKeys(g), []any{uint32(3), uint32(2), uint32(1)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	for _, size := range []uint32{3, 4, 5, 6} {
		checkStat(t, g, size, 0, 6)
	}

	g.Access(2, Default)
	if got, want := boundaryKeys(g), []any{uint32(4), uint32(3), uint32(1)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	checkStat(t, g, 3, 0, 7)
	checkStat(t, g, 4, 1, 7)
	checkStat(t, g, 5, 1, 7)
	checkStat(t, g, 6, 1, 7)

	g.Access(4, Default)
	if got, want := boundaryKeys(g), []any{uint32(5), uint32(3), uint32(1)}; !reflect.DeepEqual(got, want) {
		t.Fatalf("boundaries = %v, want %v", got, want)
	}
	checkStat(t, g, 3, 1, 8)
	checkStat(t, g, 4, 2, 8)
	checkStat(t, g, 5, 2, 8)
	checkStat(t, g, 6, 2, 8)

	// AS_MISS records a miss for every size despite refreshing the LRU.
	g.Access(2, AsMiss)
	checkStat(t, g, 3, 1, 9)
	checkStat(t, g, 4, 2, 9)
	checkStat(t, g, 5, 2, 9)
	checkStat(t, g, 6, 2, 9)

	// AS_HIT records a hit at the smallest size for every size.
	g.Access(0, AsHit)
	checkStat(t, g, 3, 2, 10)
	checkStat(t, g, 4, 3, 10)
	checkStat(t, g, 5, 3, 10)
	checkStat(t, g, 6, 3, 10)

	// NOOP updates the LRU but no counters.
	g.Access(7, Noop)
	checkStat(t, g, 3, 2, 10)
	checkStat(t, g, 4, 3, 10)
	checkStat(t, g, 5, 3, 10)
	checkStat(t, g, 6, 3, 10)
}

func TestGhostCacheRejectsBadSpectrum(t *testing.T) {
	cases := []struct{ tick, min, max uint32 }{
		{0, 3, 6},  // tick must be positive
		{1, 1, 6},  // min must exceed 1
		{2, 3, 6},  // (max-min) must be a multiple of tick
		{1, 3, 4},  // fewer than 3 sizes
	}
	for _, c := range cases {
		if _, err := NewGhostCache[uint32](c.tick, c.min, c.max, hash.IdentityUint32{}); err == nil {
			t.Fatalf("NewGhostCache(%d, %d, %d) should have failed", c.tick, c.min, c.max)
		}
	}
}

// TestGhostCacheHitCountMonotonic checks the "ghost monotonicity" property:
// for any access stream, hit_cnt must be non-decreasing as size grows,
// since a cache of size N+tick would have held onto everything a cache of
// size N held onto, plus possibly more.
func TestGhostCacheHitCountMonotonic(t *testing.T) {
	const (
		tick, minSize, maxSize = 10, 10, 100
		keySpace               = 300
		numAccesses            = 5000
	)
	g, err := NewGhostCache[uint32](tick, minSize, maxSize, hash.CRC32CUint32{})
	if err != nil {
		t.Fatalf("NewGhostCache: %v", err)
	}
	rng := rand.New(rand.NewSource(rngSeed))
	for i := 0; i < numAccesses; i++ {
		g.Access(uint32(rng.Intn(keySpace)), Default)
	}

	var prevHits uint64
	for size := uint32(minSize); size <= maxSize; size += tick {
		hits := g.GetStat(size).HitCount()
		if hits < prevHits {
			t.Fatalf("hit_cnt(%d) = %d < hit_cnt(%d) = %d: not monotonic", size, hits, size-tick, prevHits)
		}
		prevHits = hits
	}
}

func TestGhostCacheCheckpointReplay(t *testing.T) {
	source, err := NewGhostCache[uint32](1, 3, 6, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewGhostCache: %v", err)
	}
	for _, k := range []uint32{0, 1, 2, 3, 4, 5} {
		source.Access(k, Default)
	}

	replica, err := NewGhostCache[uint32](1, 3, 6, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewGhostCache: %v", err)
	}
	source.ForEachLRU(func(key uint32) {
		replica.Access(key, Noop)
	})

	// The replay can't recover the source's pre-checkpoint access counts,
	// but from here on both caches hold the same LRU/boundary state, so
	// resetting the histograms and replaying the same future accesses
	// must produce identical deltas.
	source.ResetStat()
	replica.ResetStat()
	for _, k := range []uint32{2, 4} {
		source.Access(k, Default)
		replica.Access(k, Default)
	}
	for _, size := range []uint32{3, 4, 5, 6} {
		got, want := replica.GetStat(size), source.GetStat(size)
		if got.HitCount() != want.HitCount() || got.MissCount() != want.MissCount() {
			t.Fatalf("GetStat(%d): replica = %+v, source = %+v", size, got, want)
		}
	}
}

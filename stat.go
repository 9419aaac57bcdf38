package gcache

import (
	"fmt"
	"math"
	"sync/atomic"
)

// CacheStat is a hit/miss counter pair for one cache size in a ghost
// cache's spectrum.
//
// AddHit/AddMiss always store atomically, so SnapshotAtomic is safe to call
// from a goroutine other than the one driving accesses. Snapshot reads the
// same fields with plain, non-atomic loads: cheaper, and fine for the
// common case of reading stats from the same goroutine that drives
// accesses, but it can observe a torn pair of counters (one updated, one
// not yet) under concurrent misuse. Reset is plain regardless, since it is
// meant to run between, not during, access streams.
type CacheStat struct {
	hitCnt  uint64
	missCnt uint64
}

// AddHit records one cache hit at this size. Uses an atomic store so
// SnapshotAtomic's cross-goroutine read claim actually holds: without it,
// an atomic load never synchronizes with a plain non-atomic write under
// Go's memory model, and SnapshotAtomic would be no safer than Snapshot.
func (s *CacheStat) AddHit() { atomic.AddUint64(&s.hitCnt, 1) }

// AddMiss records one cache miss at this size. See AddHit.
func (s *CacheStat) AddMiss() { atomic.AddUint64(&s.missCnt, 1) }

// Reset zeroes both counters.
func (s *CacheStat) Reset() {
	s.hitCnt = 0
	s.missCnt = 0
}

// Snapshot returns the hit and miss counts with plain, non-atomic loads.
func (s *CacheStat) Snapshot() (hit, miss uint64) { return s.hitCnt, s.missCnt }

// SnapshotAtomic returns the hit and miss counts using atomic loads.
func (s *CacheStat) SnapshotAtomic() (hit, miss uint64) {
	return atomic.LoadUint64(&s.hitCnt), atomic.LoadUint64(&s.missCnt)
}

// HitCount returns the number of recorded hits.
func (s CacheStat) HitCount() uint64 { return s.hitCnt }

// MissCount returns the number of recorded misses.
func (s CacheStat) MissCount() uint64 { return s.missCnt }

// AccessCount returns hits+misses.
func (s CacheStat) AccessCount() uint64 { return s.hitCnt + s.missCnt }

// HitRate returns hitCnt/(hitCnt+missCnt), or +Inf if no accesses have been
// recorded yet. This sentinel-for-empty convention (rather than reporting
// zero) matches the reference implementation exactly.
func (s CacheStat) HitRate() float64 {
	acc := s.AccessCount()
	if acc == 0 {
		return math.Inf(1)
	}
	return float64(s.hitCnt) / float64(acc)
}

// MissRate returns missCnt/(hitCnt+missCnt), or +Inf if no accesses have
// been recorded yet.
func (s CacheStat) MissRate() float64 {
	acc := s.AccessCount()
	if acc == 0 {
		return math.Inf(1)
	}
	return float64(s.missCnt) / float64(acc)
}

// String renders the stat the way the reference implementation's
// CacheStat::print does: "NAN (0/0)" when empty, otherwise a percentage
// followed by "(hits/total)".
func (s CacheStat) String() string {
	acc := s.AccessCount()
	if acc == 0 {
		return fmt.Sprintf("  NAN (%d/%d)", s.hitCnt, acc)
	}
	return fmt.Sprintf("%5.1f%% (%d/%d)", s.HitRate()*100, s.hitCnt, acc)
}

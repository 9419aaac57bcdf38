package gcache

import (
	"math/bits"

	"github.com/gcache/gcache/hash"
)

// SampledGhostCache wraps a GhostCache whose spectrum is scaled down by
// 2^shift, and drops any access whose hash has non-zero bits in the top
// `shift` positions. The surviving 1/2^shift of the stream simulates a
// cache 2^shift times smaller; every size reported across the public API
// is scaled back up by 2^shift on the way out, so callers see the same
// spectrum they configured.
type SampledGhostCache[K comparable] struct {
	inner *GhostCache[K]
	shift uint

	// Unscaled (caller-visible) spectrum.
	tick, minSize, maxSize uint32

	hasher hash.Hasher[K]
}

// NewSampledGhostCache constructs a SampledGhostCache. tick, minSize, and
// maxSize must each be a multiple of 2^shift, and ceil_log2(maxSize)+shift
// must not exceed 32 (the hash's top `shift` bits must not collide with
// the bits the inner engine uses for bucket addressing).
func NewSampledGhostCache[K comparable](tick, minSize, maxSize uint32, shift uint, hasher hash.Hasher[K]) (*SampledGhostCache[K], error) {
	scale := uint32(1) << shift
	if scale == 0 || tick%scale != 0 || minSize%scale != 0 || maxSize%scale != 0 {
		return nil, sampleShiftTooLargeError(shift, maxSize)
	}
	if uint(ceilLog2(maxSize))+shift > 32 {
		return nil, sampleShiftTooLargeError(shift, maxSize)
	}
	inner, err := NewGhostCache[K](tick/scale, minSize/scale, maxSize/scale, hasher)
	if err != nil {
		return nil, err
	}
	return &SampledGhostCache[K]{
		inner:   inner,
		shift:   shift,
		tick:    tick,
		minSize: minSize,
		maxSize: maxSize,
		hasher:  hasher,
	}, nil
}

// Shift returns the configured sampling shift S.
func (s *SampledGhostCache[K]) Shift() uint { return s.shift }

// Tick, MinSize, and MaxSize return the unscaled, caller-visible spectrum.
func (s *SampledGhostCache[K]) Tick() uint32    { return s.tick }
func (s *SampledGhostCache[K]) MinSize() uint32 { return s.minSize }
func (s *SampledGhostCache[K]) MaxSize() uint32 { return s.maxSize }

// Inner exposes the scaled-down GhostCache doing the actual work, for
// benchmarking and advanced inspection.
func (s *SampledGhostCache[K]) Inner() *GhostCache[K] { return s.inner }

// Access hashes key and, if it survives the sampling gate (its top `shift`
// bits are all zero), forwards the access to the inner ghost cache.
func (s *SampledGhostCache[K]) Access(key K, mode AccessMode) {
	h := s.hasher.Hash(key)
	if s.shift > 0 && h>>(32-s.shift) != 0 {
		return
	}
	s.inner.Access(key, mode)
}

// GetStat returns the hit/miss counts for size, which must be a multiple
// of 2^shift and, once scaled down, a tick-aligned point in the inner
// engine's spectrum.
func (s *SampledGhostCache[K]) GetStat(size uint32) CacheStat {
	scale := uint32(1) << s.shift
	assert(size%scale == 0, "size is not a multiple of the sampling scale")
	return s.inner.GetStat(size / scale)
}

// ResetStat delegates to the inner ghost cache.
func (s *SampledGhostCache[K]) ResetStat() { s.inner.ResetStat() }

// ceilLog2 returns the smallest n such that 2^n >= v, for v >= 1.
func ceilLog2(v uint32) uint32 {
	if v <= 1 {
		return 0
	}
	return uint32(bits.Len32(v - 1))
}

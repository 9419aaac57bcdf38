package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// XXHash32Uint32 hashes a uint32 key with XXHash64 and folds the result
// down to 32 bits by XORing its halves.
type XXHash32Uint32 struct{}

// Hash implements Hasher[uint32].
func (XXHash32Uint32) Hash(key uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], key)
	sum := xxhash.Sum64(b[:])
	return uint32(sum) ^ uint32(sum>>32)
}

// XXHash32String hashes a string key with XXHash64 and folds the result
// down to 32 bits.
type XXHash32String struct{}

// Hash implements Hasher[string].
func (XXHash32String) Hash(key string) uint32 {
	sum := xxhash.Sum64String(key)
	return uint32(sum) ^ uint32(sum>>32)
}

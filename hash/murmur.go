package hash

import "github.com/spaolacci/murmur3"

// murmurSeed matches the reference gcache implementation's hash seed, used
// consistently so the same key always maps to the same bucket across a
// process's lifetime.
const murmurSeed = 0x537

// Murmur32Uint32 hashes a uint32 key with MurmurHash3 (32-bit variant).
type Murmur32Uint32 struct{}

// Hash implements Hasher[uint32].
func (Murmur32Uint32) Hash(key uint32) uint32 {
	var b [4]byte
	b[0] = byte(key)
	b[1] = byte(key >> 8)
	b[2] = byte(key >> 16)
	b[3] = byte(key >> 24)
	h := murmur3.New32WithSeed(murmurSeed)
	h.Write(b[:])
	return h.Sum32()
}

// Murmur32String hashes a string key with MurmurHash3 (32-bit variant).
type Murmur32String struct{}

// Hash implements Hasher[string].
func (Murmur32String) Hash(key string) uint32 {
	h := murmur3.New32WithSeed(murmurSeed)
	h.Write([]byte(key))
	return h.Sum32()
}

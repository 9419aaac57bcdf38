package hash

import (
	"encoding/binary"
	"hash/crc32"
)

// crc32CSeed matches the reference gcache implementation's CRC32C seed.
const crc32CSeed = 0x537

var castagnoliTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32CUint32 is gcache's default hash for uint32 keys: CRC32C
// (Castagnoli polynomial) over the key's little-endian bytes, seeded with
// 0x537. On amd64/arm64 this lowers to a single hardware CRC32 instruction
// per 4-byte chunk.
type CRC32CUint32 struct{}

// Hash implements Hasher[uint32].
func (CRC32CUint32) Hash(key uint32) uint32 {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], key)
	return crc32.Update(crc32CSeed, castagnoliTable, b[:])
}

// CRC32CString is gcache's default hash for string keys.
type CRC32CString struct{}

// Hash implements Hasher[string].
func (CRC32CString) Hash(key string) uint32 {
	return crc32.Update(crc32CSeed, castagnoliTable, []byte(key))
}

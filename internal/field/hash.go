package field

import "math/bits"

// CategorySeed is the seed categorical columns hash their field text with.
const CategorySeed uint32 = 33

const (
	murmurC1 = 0xcc9e2d51
	murmurC2 = 0x1b873593
	murmurN  = 0xe6546b64
)

// Hash32 returns the MurmurHash3 x86 32-bit hash of buf[start:end] with the
// given seed. Unlike Range, end is exclusive here.
//
// Blocks are assembled one byte at a time in little-endian order, so the
// result does not depend on the alignment of buf or on the host byte order.
func Hash32(buf []byte, start, end int, seed uint32) uint32 {
	h := seed
	n := end - start
	if n < 0 {
		n = 0
	}

	i := start
	for blockEnd := start + n&^3; i < blockEnd; i += 4 {
		k := uint32(buf[i]) |
			uint32(buf[i+1])<<8 |
			uint32(buf[i+2])<<16 |
			uint32(buf[i+3])<<24

		h ^= mixK(k)
		h = bits.RotateLeft32(h, 13)
		h = h*5 + murmurN
	}

	var k uint32
	switch n & 3 {
	case 3:
		k ^= uint32(buf[i+2]) << 16
		fallthrough
	case 2:
		k ^= uint32(buf[i+1]) << 8
		fallthrough
	case 1:
		k ^= uint32(buf[i])
		h ^= mixK(k)
	}

	h ^= uint32(n)
	return fmix32(h)
}

// HashRange hashes the bytes of an inclusive Range.
func HashRange(buf []byte, r Range, seed uint32) uint32 {
	if r.Empty() {
		return Hash32(buf, r.Start, r.Start, seed)
	}
	return Hash32(buf, r.Start, r.End+1, seed)
}

func mixK(k uint32) uint32 {
	k *= murmurC1
	k = bits.RotateLeft32(k, 15)
	k *= murmurC2
	return k
}

// fmix32 forces every input bit to affect every output bit.
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

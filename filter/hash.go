package filter

import (
	"math/rand"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// baseHash is the 64-bit key hash shared by all three structures.
// xxhash is stable across processes, so saved filters stay valid
// when reloaded by a later run.
func baseHash(key []byte) uint64 {
	return xxhash.Sum64(key)
}

// byteHash hashes a single fingerprint byte for the alternate-bucket
// computation.
func byteHash(b uint8) uint64 {
	return murmur3.Sum64([]byte{b})
}

func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// newRand seeds a per-instance source used only for eviction choices.
// Tests that need deterministic evictions overwrite the rng field.
func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

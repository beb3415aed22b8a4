package filter

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bits-and-blooms/bitset"
)

/*
Bloom Filter Encoding
---------------------------------------------------------------------
|   Header                        |             Bit array           |
---------------------------------------------------------------------
| m (u64) | k (u64) | nblocks(u64)| block #1 (u64) | ... | block #N |
---------------------------------------------------------------------

Bits are packed LSB-first within each 64-bit block. Bits at positions
>= m in the last block are ignored on load.
*/

type BloomFilter struct {
	bitCount  uint64
	hashCount uint64
	bits      *bitset.BitSet
}

func NewBloomFilter(bitCount uint64, hashCount uint64) (*BloomFilter, error) {
	if bitCount == 0 || hashCount == 0 {
		return nil, fmt.Errorf("%w: bit count and hash count must be positive", ErrArgument)
	}
	return &BloomFilter{
		bitCount:  bitCount,
		hashCount: hashCount,
		bits:      bitset.New(uint(bitCount)),
	}, nil
}

func LoadBloomFilter(r io.Reader) (*BloomFilter, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil source", ErrArgument)
	}
	var bitCount, hashCount, nblocks uint64
	var err error
	if bitCount, err = readWord(r); err != nil {
		return nil, err
	}
	if hashCount, err = readWord(r); err != nil {
		return nil, err
	}
	if nblocks, err = readWord(r); err != nil {
		return nil, err
	}
	if bitCount == 0 || hashCount == 0 {
		return nil, fmt.Errorf("%w: zero bit or hash count", ErrFormat)
	}
	needed := (bitCount + 63) / 64
	if nblocks < needed {
		return nil, fmt.Errorf("%w: %d blocks cannot hold %d bits", ErrFormat, nblocks, bitCount)
	}
	blocks := make([]uint64, nblocks)
	if err := binary.Read(r, binary.LittleEndian, blocks); err != nil {
		return nil, readErr(err)
	}
	words := blocks[:needed]
	if rem := bitCount % 64; rem != 0 {
		words[needed-1] &= (uint64(1) << rem) - 1
	}
	return &BloomFilter{
		bitCount:  bitCount,
		hashCount: hashCount,
		bits:      bitset.FromWithLength(uint(bitCount), words),
	}, nil
}

// Insert sets the k probe positions for key. It cannot fail.
func (b *BloomFilter) Insert(key []byte) {
	h1 := baseHash(key)
	h2 := splitmix64(h1)
	for i := uint64(0); i < b.hashCount; i++ {
		b.bits.Set(uint((h1 + i*h2) % b.bitCount))
	}
}

// Contains reports whether key may have been inserted. False negatives
// are impossible.
func (b *BloomFilter) Contains(key []byte) bool {
	h1 := baseHash(key)
	h2 := splitmix64(h1)
	for i := uint64(0); i < b.hashCount; i++ {
		if !b.bits.Test(uint((h1 + i*h2) % b.bitCount)) {
			return false
		}
	}
	return true
}

func (b *BloomFilter) Save(w io.Writer) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: nil sink", ErrArgument)
	}
	blocks := b.bits.Bytes()
	for _, v := range []uint64{b.bitCount, b.hashCount, uint64(len(blocks))} {
		if err := writeWord(w, v); err != nil {
			return 0, err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, blocks); err != nil {
		return 0, err
	}
	return int64(wordSize * (3 + len(blocks))), nil
}

// Size reports the bits of backing storage.
func (b *BloomFilter) Size() uint64 {
	return uint64(len(b.bits.Bytes())) * 64
}

package filter

import (
	"fmt"
	"io"
	"math/rand"
)

/*
Cuckoo Filter Encoding
----------------------------------------------------------------------------
|            Header             |        Bucket #0      | ... | Bucket #B-1 |
----------------------------------------------------------------------------
| B | S | F | K (u64 each)      | sz (u64) | sz x fp(u8)| ... |             |
----------------------------------------------------------------------------

Only non-zero fingerprints are written; on load they are deposited into
slots [0, sz) and the rest of the bucket stays empty.
*/

type CuckooFilter struct {
	bucketCount uint64
	bucketSize  uint64
	fpBits      uint64
	maxKicks    uint64
	slots       []uint8
	rng         *rand.Rand
}

func checkCuckooParams(bucketCount, bucketSize, fpBits uint64, sentinel error) error {
	if fpBits == 0 || fpBits > 8 {
		return fmt.Errorf("%w: fingerprint width must be 1..8 bits, got %d", sentinel, fpBits)
	}
	if bucketCount == 0 || bucketSize == 0 {
		return fmt.Errorf("%w: bucket count and bucket size must be positive", sentinel)
	}
	return nil
}

// fingerprintOf masks the low fpBits of the key hash. Zero marks an
// empty slot, so a zero fingerprint is remapped to 1.
func fingerprintOf(key []byte, fpBits uint64) uint8 {
	fp := uint8(baseHash(key) & ((uint64(1) << fpBits) - 1))
	if fp == 0 {
		fp = 1
	}
	return fp
}

func keyIndex(key []byte, bucketCount uint64) uint64 {
	return baseHash(key) % bucketCount
}

// altIndex is its own inverse when bucketCount is a power of two.
func altIndex(i uint64, fp uint8, bucketCount uint64) uint64 {
	return (i ^ (byteHash(fp) % bucketCount)) % bucketCount
}

func NewCuckooFilter(bucketCount, bucketSize, fpBits, maxKicks uint64) (*CuckooFilter, error) {
	if err := checkCuckooParams(bucketCount, bucketSize, fpBits, ErrArgument); err != nil {
		return nil, err
	}
	return &CuckooFilter{
		bucketCount: bucketCount,
		bucketSize:  bucketSize,
		fpBits:      fpBits,
		maxKicks:    maxKicks,
		slots:       make([]uint8, bucketCount*bucketSize),
		rng:         newRand(),
	}, nil
}

func LoadCuckooFilter(r io.Reader) (*CuckooFilter, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil source", ErrArgument)
	}
	var hdr [4]uint64
	for i := range hdr {
		v, err := readWord(r)
		if err != nil {
			return nil, err
		}
		hdr[i] = v
	}
	bucketCount, bucketSize, fpBits, maxKicks := hdr[0], hdr[1], hdr[2], hdr[3]
	if err := checkCuckooParams(bucketCount, bucketSize, fpBits, ErrFormat); err != nil {
		return nil, err
	}
	slots := make([]uint8, bucketCount*bucketSize)
	for i := uint64(0); i < bucketCount; i++ {
		sz, err := readWord(r)
		if err != nil {
			return nil, err
		}
		if sz > bucketSize {
			return nil, fmt.Errorf("%w: bucket %d holds %d of %d slots", ErrFormat, i, sz, bucketSize)
		}
		base := i * bucketSize
		if _, err := io.ReadFull(r, slots[base:base+sz]); err != nil {
			return nil, readErr(err)
		}
	}
	return &CuckooFilter{
		bucketCount: bucketCount,
		bucketSize:  bucketSize,
		fpBits:      fpBits,
		maxKicks:    maxKicks,
		slots:       slots,
		rng:         newRand(),
	}, nil
}

func (c *CuckooFilter) placeInBucket(i uint64, fp uint8) bool {
	base := i * c.bucketSize
	for j := uint64(0); j < c.bucketSize; j++ {
		if c.slots[base+j] == 0 {
			c.slots[base+j] = fp
			return true
		}
	}
	return false
}

func (c *CuckooFilter) bucketHas(i uint64, fp uint8) bool {
	base := i * c.bucketSize
	for j := uint64(0); j < c.bucketSize; j++ {
		if c.slots[base+j] == fp {
			return true
		}
	}
	return false
}

// Insert places the key's fingerprint in one of its two candidate
// buckets, evicting residents for up to maxKicks relocations. A false
// return means the table is effectively full; the displaced in-flight
// fingerprint is discarded and all previously stored fingerprints are
// retained.
func (c *CuckooFilter) Insert(key []byte) bool {
	fp := fingerprintOf(key, c.fpBits)
	i1 := keyIndex(key, c.bucketCount)
	i2 := altIndex(i1, fp, c.bucketCount)

	if c.placeInBucket(i1, fp) || c.placeInBucket(i2, fp) {
		return true
	}

	idx := i1
	if c.rng.Intn(2) == 1 {
		idx = i2
	}
	for kick := uint64(0); kick < c.maxKicks; kick++ {
		victim := idx*c.bucketSize + uint64(c.rng.Intn(int(c.bucketSize)))
		fp, c.slots[victim] = c.slots[victim], fp
		idx = altIndex(idx, fp, c.bucketCount)
		if c.placeInBucket(idx, fp) {
			return true
		}
	}
	return false
}

func (c *CuckooFilter) Contains(key []byte) bool {
	fp := fingerprintOf(key, c.fpBits)
	i1 := keyIndex(key, c.bucketCount)
	i2 := altIndex(i1, fp, c.bucketCount)
	return c.bucketHas(i1, fp) || c.bucketHas(i2, fp)
}

// Erase clears one slot holding the key's fingerprint, scanning the
// first candidate bucket before the second. It removes one occurrence,
// not necessarily the caller's original key.
func (c *CuckooFilter) Erase(key []byte) bool {
	fp := fingerprintOf(key, c.fpBits)
	i1 := keyIndex(key, c.bucketCount)
	i2 := altIndex(i1, fp, c.bucketCount)
	for _, idx := range []uint64{i1, i2} {
		base := idx * c.bucketSize
		for j := uint64(0); j < c.bucketSize; j++ {
			if c.slots[base+j] == fp {
				c.slots[base+j] = 0
				return true
			}
		}
	}
	return false
}

func (c *CuckooFilter) Save(w io.Writer) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: nil sink", ErrArgument)
	}
	for _, v := range []uint64{c.bucketCount, c.bucketSize, c.fpBits, c.maxKicks} {
		if err := writeWord(w, v); err != nil {
			return 0, err
		}
	}
	written := int64(4 * wordSize)
	live := make([]uint8, 0, c.bucketSize)
	for i := uint64(0); i < c.bucketCount; i++ {
		base := i * c.bucketSize
		live = live[:0]
		for j := uint64(0); j < c.bucketSize; j++ {
			if v := c.slots[base+j]; v != 0 {
				live = append(live, v)
			}
		}
		if err := writeWord(w, uint64(len(live))); err != nil {
			return written, err
		}
		written += wordSize
		if len(live) > 0 {
			n, err := w.Write(live)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Size reports the bits of backing storage.
func (c *CuckooFilter) Size() uint64 {
	return c.bucketCount * c.bucketSize * 8
}

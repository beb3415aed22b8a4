package filter

import (
	"fmt"
	"io"
	"math/rand"
	"unsafe"
)

/*
Cuckoo Map Encoding
------------------------------------------------------------------------------
|          Header          |              Bucket #0              | ... | #B-1 |
------------------------------------------------------------------------------
| B | S | F | K (u64 each) | S x slot(u8) | len (u64) | len x fp(u8) |  ...  |
------------------------------------------------------------------------------

Unlike the cuckoo filter, the primary slots are dumped verbatim with
their zero holes, and each bucket's overflow chain follows head to
tail. On load chain nodes are appended in file order.
*/

type chainNode struct {
	fp   uint8
	next *chainNode
}

// CuckooMap is a cuckoo filter whose buckets carry an overflow chain,
// so Insert never fails. Chain heads live in a parallel array rather
// than inside the slot buffer.
type CuckooMap struct {
	bucketCount uint64
	bucketSize  uint64
	fpBits      uint64
	maxKicks    uint64
	slots       []uint8
	chains      []*chainNode
	rng         *rand.Rand
}

func NewCuckooMap(bucketCount, bucketSize, fpBits, maxKicks uint64) (*CuckooMap, error) {
	if err := checkCuckooParams(bucketCount, bucketSize, fpBits, ErrArgument); err != nil {
		return nil, err
	}
	return &CuckooMap{
		bucketCount: bucketCount,
		bucketSize:  bucketSize,
		fpBits:      fpBits,
		maxKicks:    maxKicks,
		slots:       make([]uint8, bucketCount*bucketSize),
		chains:      make([]*chainNode, bucketCount),
		rng:         newRand(),
	}, nil
}

func LoadCuckooMap(r io.Reader) (*CuckooMap, error) {
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
	m := &CuckooMap{
		bucketCount: bucketCount,
		bucketSize:  bucketSize,
		fpBits:      fpBits,
		maxKicks:    maxKicks,
		slots:       make([]uint8, bucketCount*bucketSize),
		chains:      make([]*chainNode, bucketCount),
		rng:         newRand(),
	}
	for i := uint64(0); i < bucketCount; i++ {
		base := i * bucketSize
		if _, err := io.ReadFull(r, m.slots[base:base+bucketSize]); err != nil {
			return nil, readErr(err)
		}
		chainLen, err := readWord(r)
		if err != nil {
			return nil, err
		}
		var tail *chainNode
		for j := uint64(0); j < chainLen; j++ {
			var fp [1]uint8
			if _, err := io.ReadFull(r, fp[:]); err != nil {
				return nil, readErr(err)
			}
			n := &chainNode{fp: fp[0]}
			if tail == nil {
				m.chains[i] = n
			} else {
				tail.next = n
			}
			tail = n
		}
	}
	return m, nil
}

func (m *CuckooMap) placeInBucket(i uint64, fp uint8) bool {
	base := i * m.bucketSize
	for j := uint64(0); j < m.bucketSize; j++ {
		if m.slots[base+j] == 0 {
			m.slots[base+j] = fp
			return true
		}
	}
	return false
}

// Insert always succeeds. When the kick budget runs out, the in-flight
// fingerprint is prepended to the shorter of the two candidate chains;
// a tie, including two empty chains, goes to the alternate bucket.
func (m *CuckooMap) Insert(key []byte) bool {
	fp := fingerprintOf(key, m.fpBits)
	i1 := keyIndex(key, m.bucketCount)
	i2 := altIndex(i1, fp, m.bucketCount)

	if m.placeInBucket(i1, fp) || m.placeInBucket(i2, fp) {
		return true
	}

	idx := i1
	if m.rng.Intn(2) == 1 {
		idx = i2
	}
	cur := fp
	for kick := uint64(0); kick < m.maxKicks; kick++ {
		victim := idx*m.bucketSize + uint64(m.rng.Intn(int(m.bucketSize)))
		cur, m.slots[victim] = m.slots[victim], cur
		idx = altIndex(idx, cur, m.bucketCount)
		if m.placeInBucket(idx, cur) {
			return true
		}
	}

	h1, h2 := m.chains[i1], m.chains[i2]
	for h1 != nil && h2 != nil {
		h1, h2 = h1.next, h2.next
	}
	target := i2
	if h1 == nil && h2 != nil {
		target = i1
	}
	m.chains[target] = &chainNode{fp: cur, next: m.chains[target]}
	return true
}

func (m *CuckooMap) Contains(key []byte) bool {
	fp := fingerprintOf(key, m.fpBits)
	i1 := keyIndex(key, m.bucketCount)
	i2 := altIndex(i1, fp, m.bucketCount)
	for _, idx := range []uint64{i1, i2} {
		base := idx * m.bucketSize
		for j := uint64(0); j < m.bucketSize; j++ {
			if m.slots[base+j] == fp {
				return true
			}
		}
		for p := m.chains[idx]; p != nil; p = p.next {
			if p.fp == fp {
				return true
			}
		}
	}
	return false
}

// Erase removes one occurrence of the key's fingerprint: primary slots
// are scanned before the chain, first candidate bucket before the
// second.
func (m *CuckooMap) Erase(key []byte) bool {
	fp := fingerprintOf(key, m.fpBits)
	i1 := keyIndex(key, m.bucketCount)
	i2 := altIndex(i1, fp, m.bucketCount)
	for _, idx := range []uint64{i1, i2} {
		base := idx * m.bucketSize
		for j := uint64(0); j < m.bucketSize; j++ {
			if m.slots[base+j] == fp {
				m.slots[base+j] = 0
				return true
			}
		}
		var prev *chainNode
		for p := m.chains[idx]; p != nil; p = p.next {
			if p.fp == fp {
				if prev == nil {
					m.chains[idx] = p.next
				} else {
					prev.next = p.next
				}
				return true
			}
			prev = p
		}
	}
	return false
}

func (m *CuckooMap) Save(w io.Writer) (int64, error) {
	if w == nil {
		return 0, fmt.Errorf("%w: nil sink", ErrArgument)
	}
	for _, v := range []uint64{m.bucketCount, m.bucketSize, m.fpBits, m.maxKicks} {
		if err := writeWord(w, v); err != nil {
			return 0, err
		}
	}
	written := int64(4 * wordSize)
	var chain []uint8
	for i := uint64(0); i < m.bucketCount; i++ {
		base := i * m.bucketSize
		n, err := w.Write(m.slots[base : base+m.bucketSize])
		written += int64(n)
		if err != nil {
			return written, err
		}
		chain = chain[:0]
		for p := m.chains[i]; p != nil; p = p.next {
			chain = append(chain, p.fp)
		}
		if err := writeWord(w, uint64(len(chain))); err != nil {
			return written, err
		}
		written += wordSize
		if len(chain) > 0 {
			n, err = w.Write(chain)
			written += int64(n)
			if err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Size reports the bits held by the bucket array, counting a chain-head
// pointer per bucket, plus the bits of every live chain node.
func (m *CuckooMap) Size() uint64 {
	const headSize = uint64(unsafe.Sizeof((*chainNode)(nil)))
	const nodeSize = uint64(unsafe.Sizeof(chainNode{}))
	bits := m.bucketCount * (headSize + m.bucketSize) * 8
	for _, h := range m.chains {
		for p := h; p != nil; p = p.next {
			bits += nodeSize * 8
		}
	}
	return bits
}

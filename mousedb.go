package mousedb

import (
	"io"

	"mousedb/filter"
)

// Filter is the common surface over the three approximate-membership
// structures. Keys are opaque byte sequences.
type Filter interface {
	Insert(key []byte) bool
	Contains(key []byte) bool
	Erase(key []byte) bool
	Save(w io.Writer) (int64, error)
	Size() uint64
}

// bloomHandle adapts the bloom filter, whose inserts cannot fail and
// which does not support deletion.
type bloomHandle struct {
	bf *filter.BloomFilter
}

func (h bloomHandle) Insert(key []byte) bool {
	h.bf.Insert(key)
	return true
}

func (h bloomHandle) Contains(key []byte) bool { return h.bf.Contains(key) }

func (h bloomHandle) Erase(key []byte) bool { return false }

func (h bloomHandle) Save(w io.Writer) (int64, error) { return h.bf.Save(w) }

func (h bloomHandle) Size() uint64 { return h.bf.Size() }

func NewBloomFilter(bitCount, hashCount uint64) (Filter, error) {
	bf, err := filter.NewBloomFilter(bitCount, hashCount)
	if err != nil {
		return nil, err
	}
	return bloomHandle{bf}, nil
}

func LoadBloomFilter(r io.Reader) (Filter, error) {
	bf, err := filter.LoadBloomFilter(r)
	if err != nil {
		return nil, err
	}
	return bloomHandle{bf}, nil
}

func NewCuckooFilter(bucketCount, bucketSize, fpBits, maxKicks uint64) (Filter, error) {
	cf, err := filter.NewCuckooFilter(bucketCount, bucketSize, fpBits, maxKicks)
	if err != nil {
		return nil, err
	}
	return cf, nil
}

func LoadCuckooFilter(r io.Reader) (Filter, error) {
	cf, err := filter.LoadCuckooFilter(r)
	if err != nil {
		return nil, err
	}
	return cf, nil
}

func NewCuckooMap(bucketCount, bucketSize, fpBits, maxKicks uint64) (Filter, error) {
	cm, err := filter.NewCuckooMap(bucketCount, bucketSize, fpBits, maxKicks)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

func LoadCuckooMap(r io.Reader) (Filter, error) {
	cm, err := filter.LoadCuckooMap(r)
	if err != nil {
		return nil, err
	}
	return cm, nil
}

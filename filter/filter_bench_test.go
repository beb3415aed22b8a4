package filter

import (
	"fmt"
	"math/rand"
	"testing"
)

func randomKeys(n int) [][]byte {
	rng := rand.New(rand.NewSource(12345))
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte(fmt.Sprint(rng.Uint64()))
	}
	return keys
}

var benchBatches = []int{1 << 12, 1 << 16, 1 << 20}

func BenchmarkBloomInsert(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				bf, _ := NewBloomFilter(uint64(batch)*10, 3)
				for _, k := range keys {
					bf.Insert(k)
				}
			}
		})
	}
}

func BenchmarkBloomContains(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			bf, _ := NewBloomFilter(uint64(batch)*10, 3)
			for _, k := range keys {
				bf.Insert(k)
			}
			b.ResetTimer()
			var found bool
			for i := 0; i < b.N; i++ {
				found = bf.Contains(keys[i%batch])
			}
			_ = found
		})
	}
}

func BenchmarkCuckooInsert(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				cf, _ := NewCuckooFilter(uint64(batch)/4, 4, 8, 500)
				for _, k := range keys {
					cf.Insert(k)
				}
			}
		})
	}
}

func BenchmarkCuckooContains(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			cf, _ := NewCuckooFilter(uint64(batch)/2, 4, 8, 500)
			for _, k := range keys {
				cf.Insert(k)
			}
			b.ResetTimer()
			var found bool
			for i := 0; i < b.N; i++ {
				found = cf.Contains(keys[i%batch])
			}
			_ = found
		})
	}
}

func BenchmarkCuckooMapInsert(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				cm, _ := NewCuckooMap(uint64(batch)/4, 4, 8, 500)
				for _, k := range keys {
					cm.Insert(k)
				}
			}
		})
	}
}

func BenchmarkCuckooMapContains(b *testing.B) {
	for _, batch := range benchBatches {
		b.Run(fmt.Sprint(batch), func(b *testing.B) {
			keys := randomKeys(batch)
			cm, _ := NewCuckooMap(uint64(batch)/2, 4, 8, 500)
			for _, k := range keys {
				cm.Insert(k)
			}
			b.ResetTimer()
			var found bool
			for i := 0; i < b.N; i++ {
				found = cm.Contains(keys[i%batch])
			}
			_ = found
		})
	}
}

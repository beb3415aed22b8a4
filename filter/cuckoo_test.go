package filter

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeCuckooFilter(t *testing.T) *CuckooFilter {
	t.Helper()
	cf, err := NewCuckooFilter(16, 4, 8, 500)
	require.NoError(t, err)
	return cf
}

func TestCuckooEmptyFilterContainsNothing(t *testing.T) {
	cf := makeCuckooFilter(t)
	require.False(t, cf.Contains([]byte("")))
	require.False(t, cf.Contains([]byte("foo")))
	require.False(t, cf.Contains([]byte("bar")))
}

func TestCuckooInsertAndContainsSingleItem(t *testing.T) {
	cf := makeCuckooFilter(t)
	require.False(t, cf.Contains([]byte("hello")))
	require.True(t, cf.Insert([]byte("hello")))
	require.True(t, cf.Contains([]byte("hello")))
	require.False(t, cf.Contains([]byte("world")))
}

func TestCuckooInsertMultipleItems(t *testing.T) {
	cf := makeCuckooFilter(t)
	items := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	for _, s := range items {
		require.False(t, cf.Contains([]byte(s)), "pre-insert: unexpected hit for %s", s)
		require.True(t, cf.Insert([]byte(s)), "failed to insert %s", s)
	}
	for _, s := range items {
		require.True(t, cf.Contains([]byte(s)), "post-insert: missing %s", s)
	}
	require.False(t, cf.Contains([]byte("zeta")))
}

func TestCuckooEraseExistingItem(t *testing.T) {
	cf := makeCuckooFilter(t)
	require.True(t, cf.Insert([]byte("delete_me")))
	require.True(t, cf.Contains([]byte("delete_me")))
	require.True(t, cf.Erase([]byte("delete_me")))
	require.False(t, cf.Contains([]byte("delete_me")))
	require.False(t, cf.Erase([]byte("delete_me")))
}

func TestCuckooEraseNonexistentItem(t *testing.T) {
	cf := makeCuckooFilter(t)
	require.False(t, cf.Erase([]byte("nothing_here")))
}

func TestCuckooSaveAndLoadPreservesContents(t *testing.T) {
	cf := makeCuckooFilter(t)
	items := []string{"one", "two", "three"}
	for _, s := range items {
		require.True(t, cf.Insert([]byte(s)), "setup insert failed for %s", s)
	}

	f, err := os.CreateTemp("", "cuckoo-*.bin")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	written, err := cf.Save(f)
	require.NoError(t, err)
	// header + per-bucket count words + three live fingerprints
	require.Equal(t, int64(4*8+16*8+3), written)

	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	loaded, err := LoadCuckooFilter(f)
	require.NoError(t, err)

	for _, s := range items {
		require.True(t, loaded.Contains([]byte(s)), "loaded filter missing %s", s)
	}
	require.False(t, loaded.Contains([]byte("four")))

	// erase keeps working after a reload
	require.True(t, loaded.Erase([]byte("two")))
	require.False(t, loaded.Contains([]byte("two")))
}

func TestCuckooInsertFailsWhenFull(t *testing.T) {
	// One bucket of one slot and no alternate escape: the third insert
	// with a colliding pair must give up after the kick budget.
	cf, err := NewCuckooFilter(1, 1, 8, 4)
	require.NoError(t, err)
	cf.rng = rand.New(rand.NewSource(1))
	require.True(t, cf.Insert([]byte("first")))
	require.False(t, cf.Insert([]byte("second")))
	require.True(t, cf.Contains([]byte("first")))
}

func TestCuckooRejectsBadParams(t *testing.T) {
	_, err := NewCuckooFilter(16, 4, 0, 500)
	require.ErrorIs(t, err, ErrArgument)
	_, err = NewCuckooFilter(16, 4, 9, 500)
	require.ErrorIs(t, err, ErrArgument)
	_, err = NewCuckooFilter(0, 4, 8, 500)
	require.ErrorIs(t, err, ErrArgument)
	_, err = NewCuckooFilter(16, 0, 8, 500)
	require.ErrorIs(t, err, ErrArgument)
}

func TestCuckooLoadRejectsBadStream(t *testing.T) {
	cf := makeCuckooFilter(t)
	require.True(t, cf.Insert([]byte("survivor")))
	var buf bytes.Buffer
	_, err := cf.Save(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	_, err = LoadCuckooFilter(bytes.NewReader(data[:len(data)-1]))
	require.ErrorIs(t, err, ErrFormat)

	// fingerprint width out of range in the header
	var bad bytes.Buffer
	for _, v := range []uint64{16, 4, 9, 500} {
		require.NoError(t, writeWord(&bad, v))
	}
	_, err = LoadCuckooFilter(&bad)
	require.ErrorIs(t, err, ErrFormat)

	// bucket claiming more fingerprints than slots
	bad.Reset()
	for _, v := range []uint64{2, 2, 8, 10, 3} {
		require.NoError(t, writeWord(&bad, v))
	}
	_, err = LoadCuckooFilter(&bad)
	require.ErrorIs(t, err, ErrFormat)
}

func TestCuckooFingerprintNeverZero(t *testing.T) {
	for width := uint64(1); width <= 8; width++ {
		for i := 0; i < 4096; i++ {
			key := []byte(fmt.Sprintf("key-%d", i))
			require.NotZero(t, fingerprintOf(key, width), "width %d key %s", width, key)
		}
	}
}

func TestAltIndexReflexiveForPowerOfTwoBuckets(t *testing.T) {
	for _, bucketCount := range []uint64{1, 2, 16, 1024} {
		for b := uint64(0); b < bucketCount; b++ {
			for fp := 1; fp <= 255; fp++ {
				alt := altIndex(b, uint8(fp), bucketCount)
				require.Less(t, alt, bucketCount)
				require.Equal(t, b, altIndex(alt, uint8(fp), bucketCount),
					"bucketCount=%d bucket=%d fp=%d", bucketCount, b, fp)
			}
		}
	}
}

func TestCuckooSizeReportsBackingBits(t *testing.T) {
	cf, err := NewCuckooFilter(32, 4, 8, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(32*4*8), cf.Size())
}

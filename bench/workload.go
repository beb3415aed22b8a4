package bench

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/huandu/skiplist"
)

// Filter is the membership surface the workload drives. Bloom filters
// are adapted by the caller so Insert reports success.
type Filter interface {
	Insert(key []byte) bool
	Contains(key []byte) bool
	Size() uint64
}

type Distribution int

const (
	Uniform Distribution = iota
	Zipfian
)

func (d Distribution) String() string {
	if d == Zipfian {
		return "zipfian"
	}
	return "uniform"
}

// WorkloadOptions configures a key stream and its query phase.
type WorkloadOptions struct {
	NumKeys    int
	Dist       Distribution
	ZipfS      float64 // skew, must be > 1
	ZipfN      uint64  // key universe for the zipfian stream
	InsertSeed int64
	QuerySeed  int64
}

// Result captures workload outcome numbers.
type Result struct {
	Inserted       int
	InsertFailures int
	Queries        int
	FalsePositives int
	FPRate         float64
	SizeBits       uint64
	InsertTime     time.Duration
	QueryTime      time.Duration
}

func (r *Result) String() string {
	return fmt.Sprintf("failures: %d, false positives: %d / %d (%.3f%%), size: %d bits",
		r.InsertFailures, r.FalsePositives, r.Queries, 100*r.FPRate, r.SizeBits)
}

func keyStream(opts WorkloadOptions, rng *rand.Rand) func() []byte {
	if opts.Dist == Zipfian {
		zipf := rand.NewZipf(rng, opts.ZipfS, 1, opts.ZipfN-1)
		return func() []byte {
			return []byte(strconv.FormatUint(zipf.Uint64(), 10))
		}
	}
	return func() []byte {
		return []byte(strconv.FormatUint(rng.Uint64(), 10))
	}
}

// RunWorkload inserts NumKeys keys drawn from the configured
// distribution, then issues NumKeys uniform queries from an independent
// seed. Keys that were genuinely inserted are tracked in a skiplist
// oracle so a query hit on one of them is not counted as a false
// positive.
func RunWorkload(f Filter, opts WorkloadOptions) (*Result, error) {
	if f == nil {
		return nil, fmt.Errorf("workload: nil filter")
	}
	if opts.NumKeys <= 0 {
		return nil, fmt.Errorf("workload: NumKeys must be positive")
	}
	if opts.Dist == Zipfian && (opts.ZipfS <= 1 || opts.ZipfN < 2) {
		return nil, fmt.Errorf("workload: zipfian stream needs ZipfS > 1 and ZipfN >= 2")
	}

	oracle := skiplist.New(skiplist.Bytes)
	next := keyStream(opts, rand.New(rand.NewSource(opts.InsertSeed)))

	result := &Result{}
	startInsert := time.Now()
	for i := 0; i < opts.NumKeys; i++ {
		k := next()
		if f.Insert(k) {
			result.Inserted++
			oracle.Set(k, struct{}{})
		} else {
			result.InsertFailures++
		}
	}
	result.InsertTime = time.Since(startInsert)

	queryRng := rand.New(rand.NewSource(opts.QuerySeed))
	startQuery := time.Now()
	for i := 0; i < opts.NumKeys; i++ {
		k := []byte(strconv.FormatUint(queryRng.Uint64(), 10))
		result.Queries++
		if f.Contains(k) && oracle.Get(k) == nil {
			result.FalsePositives++
		}
	}
	result.QueryTime = time.Since(startQuery)

	result.FPRate = float64(result.FalsePositives) / float64(result.Queries)
	result.SizeBits = f.Size()
	return result, nil
}

// BloomSizing derives bit and hash counts for an expected key count and
// target false-positive rate.
func BloomSizing(numKeys int, fpRate float64) (bits uint64, hashes uint64) {
	m := math.Ceil(-1 * float64(numKeys) * math.Log(fpRate) / (math.Ln2 * math.Ln2))
	k := math.Ceil(math.Ln2 * m / float64(numKeys))
	return uint64(m), uint64(k)
}

// CuckooSizing derives a bucket count for an expected key count at a
// 95% load factor with the given slots per bucket.
func CuckooSizing(numKeys int, bucketSize uint64) uint64 {
	buckets := uint64(math.Ceil(float64(numKeys) / (float64(bucketSize) * 0.95)))
	if buckets == 0 {
		buckets = 1
	}
	return buckets
}

package blocklist

// Rule is one blocklist entry. Suffix rules block the name and everything
// beneath it; exact rules block only the name itself.
type Rule struct {
	Name   string
	Suffix bool
}

// BloomSizer computes Bloom filter parameters from capacity (n) and target FP rate (p).
// It returns m (number of bits) and k (number of hash functions).
type BloomSizer interface {
	Size(n uint64, p float64) (m uint64, k uint8)
}

// BloomFilter is the minimal interface the repository needs from Bloom filters.
type BloomFilter interface {
	Add(key []byte)
	MightContain(key []byte) bool
}

// BloomFactory builds filters sized for a dataset.
type BloomFactory interface {
	New(capacity uint64, fpRate float64) BloomFilter
}

// DecisionCache caches block decisions by canonical name.
type DecisionCache interface {
	Get(name string) (blocked bool, found bool)
	Put(name string, blocked bool)
	Len() int
	Purge()
}

// StoreStats captures high-level counts and metadata for the persistent store.
type StoreStats struct {
	ExactCount  uint64
	SuffixCount uint64
	Version     uint64
	UpdatedUnix int64 // seconds since epoch
}

// Store abstracts the persistent index. Suffix anchors are keyed by the
// reversed canonical name so lookups are exact key reads; the reversal must
// match reverseString in this package.
type Store interface {
	RebuildAll(rules []Rule, version uint64, updatedUnix int64) error
	ExistsExact(name string) (bool, error)
	ExistsSuffix(reversed string) (bool, error)
	Stats() StoreStats
	Close() error
}

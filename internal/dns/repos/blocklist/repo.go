// Package blocklist refuses resolution of names on a configured deny list.
// Lookups consult a Bloom filter that early-allows names that are definitely
// absent, then an LRU of recent decisions, then the persistent store, which
// is authoritative.
package blocklist

import (
	"strings"
	"sync"

	"github.com/haukened/ir-dns/internal/dns/common/utils"
	"github.com/haukened/ir-dns/internal/dns/domain"
	"github.com/haukened/ir-dns/internal/dns/services/resolver"
)

// repository composes a Store, a Bloom filter (via factory), and a
// DecisionCache. It applies the read pipeline and performs atomic snapshot
// updates on writes.
type repository struct {
	mu      sync.RWMutex
	store   Store
	cache   DecisionCache
	bloom   BloomFilter
	factory BloomFactory
	fpRate  float64
}

// NewRepository constructs a repository. fpRate is the target false-positive
// rate for the Bloom filter when rebuilding.
func NewRepository(store Store, cache DecisionCache, factory BloomFactory, fpRate float64) *repository {
	return &repository{store: store, cache: cache, factory: factory, fpRate: fpRate}
}

// IsBlocked reports whether the question's name is on the blocklist.
func (r *repository) IsBlocked(q domain.Question) bool {
	return r.Decide(q.Name)
}

// Decide returns whether the provided name is blocked.
// Policy: on internal errors, prefer allow.
func (r *repository) Decide(name string) bool {
	cn := utils.CanonicalDNSName(name)
	if cn == "" {
		return false
	}
	if !r.checkBloom(cn) {
		return false
	}
	if blocked, ok := r.checkCache(cn); ok {
		return blocked
	}
	blocked := r.checkStore(cn)
	r.updateCache(cn, blocked)
	return blocked
}

// UpdateAll performs an atomic snapshot update across store, bloom, and cache.
func (r *repository) UpdateAll(rules []Rule, version uint64, updatedUnix int64) error {
	if err := r.store.RebuildAll(rules, version, updatedUnix); err != nil {
		return err
	}

	bf := r.factory.New(uint64(len(rules)), r.fpRate)
	for _, ru := range rules {
		if ru.Suffix {
			bf.Add([]byte(reverseString(ru.Name)))
		} else {
			bf.Add([]byte(ru.Name))
		}
	}

	r.mu.Lock()
	r.bloom = bf
	r.cache.Purge()
	r.mu.Unlock()
	return nil
}

// Stats returns counts and metadata from the underlying store.
func (r *repository) Stats() StoreStats {
	return r.store.Stats()
}

// Close releases the underlying store.
func (r *repository) Close() error {
	return r.store.Close()
}

// reverseString reverses the string bytes. Must match the store's reversal
// logic used for suffix anchors to keep Bloom keys aligned with store keys.
func reverseString(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// checkBloom returns true if we should consult the store (maybe-positive),
// or false if we can early-allow (definitely negative). If no bloom is
// loaded, returns true to allow authoritative checking.
func (r *repository) checkBloom(cn string) bool {
	r.mu.RLock()
	bf := r.bloom
	r.mu.RUnlock()
	if bf == nil {
		return true
	}
	if bf.MightContain([]byte(cn)) {
		return true
	}
	// test reversed anchors for suffix candidates, most-specific first
	a := cn
	for {
		if bf.MightContain([]byte(reverseString(a))) {
			return true
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			return false
		}
		a = a[i+1:]
	}
}

func (r *repository) checkCache(cn string) (blocked bool, found bool) {
	r.mu.RLock()
	blocked, found = r.cache.Get(cn)
	r.mu.RUnlock()
	return blocked, found
}

// checkStore consults the authoritative store: an exact hit on the name, or
// a suffix anchor matching the name or any parent. On error, allow.
func (r *repository) checkStore(cn string) bool {
	if hit, err := r.store.ExistsExact(cn); err == nil && hit {
		return true
	}
	a := cn
	for {
		if hit, err := r.store.ExistsSuffix(reverseString(a)); err == nil && hit {
			return true
		}
		i := strings.IndexByte(a, '.')
		if i < 0 {
			return false
		}
		a = a[i+1:]
	}
}

func (r *repository) updateCache(cn string, blocked bool) {
	r.mu.Lock()
	r.cache.Put(cn, blocked)
	r.mu.Unlock()
}

var _ resolver.Blocklist = (*repository)(nil)

// Package dnscache provides a TTL-aware answer cache backed by an LRU store.
// Freshness is computed from the insertion timestamp, so cached records keep
// their original TTL values and the remaining lifetime is derived on read.
package dnscache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/ir-dns/internal/dns/domain"
	"github.com/haukened/ir-dns/internal/dns/services/resolver"
)

// entry is one cache slot: either a record set or a remembered negative
// outcome. ttl is the effective lifetime in seconds, the minimum across the
// stored records for positive entries.
type entry struct {
	records    []domain.ResourceRecord
	rcode      domain.RCode
	negative   bool
	insertedAt time.Time
	ttl        uint32
}

// expired reports whether the entry is stale at the given instant. An entry
// inserted at T with lifetime t serves hits in [T, T+t) and misses at T+t.
func (e entry) expired(now time.Time) bool {
	return !now.Before(e.insertedAt.Add(time.Duration(e.ttl) * time.Second))
}

// remaining returns the whole seconds of lifetime left at the given instant.
func (e entry) remaining(now time.Time) uint32 {
	left := e.insertedAt.Add(time.Duration(e.ttl) * time.Second).Sub(now)
	if left <= 0 {
		return 0
	}
	return uint32(left / time.Second)
}

// dnsCache is an in-memory TTL-aware cache using an LRU strategy to store
// DNS answers. Expired entries are evicted lazily on read.
type dnsCache struct {
	lru *lru.Cache[string, entry]
}

// New returns a dnsCache of the given size using an LRU backing store.
func New(size int) (*dnsCache, error) {
	cache, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &dnsCache{lru: cache}, nil
}

// Put stores records grouped by their cache key. Each group's lifetime is
// the minimum TTL across the group; groups whose lifetime is zero are not
// stored, so a TTL of zero can never produce a hit.
func (c *dnsCache) Put(records []domain.ResourceRecord, now time.Time) {
	groups := make(map[string][]domain.ResourceRecord)
	for _, rr := range records {
		key := rr.CacheKey()
		groups[key] = append(groups[key], rr)
	}
	for key, group := range groups {
		ttl := group[0].TTL
		for _, rr := range group[1:] {
			if rr.TTL < ttl {
				ttl = rr.TTL
			}
		}
		if ttl == 0 {
			continue
		}
		c.lru.Add(key, entry{
			records:    group,
			rcode:      domain.NOERROR,
			insertedAt: now,
			ttl:        ttl,
		})
	}
}

// PutNegative remembers a negative outcome for the question, bounded by ttl
// seconds.
func (c *dnsCache) PutNegative(q domain.Question, rcode domain.RCode, ttl uint32, now time.Time) {
	if ttl == 0 {
		return
	}
	c.lru.Add(q.CacheKey(), entry{
		rcode:      rcode,
		negative:   true,
		insertedAt: now,
		ttl:        ttl,
	})
}

// Get returns the cached answer for the question if it is still fresh.
// Records in a positive hit carry their remaining TTL, not the original.
// Stale entries are removed on the way out.
func (c *dnsCache) Get(q domain.Question, now time.Time) (resolver.CacheAnswer, bool) {
	key := q.CacheKey()
	e, found := c.lru.Get(key)
	if !found {
		return resolver.CacheAnswer{}, false
	}
	if e.expired(now) {
		c.lru.Remove(key)
		return resolver.CacheAnswer{}, false
	}
	if e.negative {
		return resolver.CacheAnswer{RCode: e.rcode, Negative: true}, true
	}

	left := e.remaining(now)
	records := make([]domain.ResourceRecord, len(e.records))
	for i, rr := range e.records {
		rr.TTL = left
		records[i] = rr
	}
	return resolver.CacheAnswer{Records: records, RCode: e.rcode}, true
}

// Delete removes the entry for the given question from the cache.
func (c *dnsCache) Delete(q domain.Question) {
	c.lru.Remove(q.CacheKey())
}

// Len returns the number of cache entries (keys) currently stored.
func (c *dnsCache) Len() int {
	return c.lru.Len()
}

var _ resolver.Cache = (*dnsCache)(nil)

// nopCache satisfies resolver.Cache while storing nothing, for running with
// caching disabled.
type nopCache struct{}

// Nop returns a cache that never stores or returns anything.
func Nop() resolver.Cache {
	return nopCache{}
}

func (nopCache) Put([]domain.ResourceRecord, time.Time)                       {}
func (nopCache) PutNegative(domain.Question, domain.RCode, uint32, time.Time) {}
func (nopCache) Len() int                                                     { return 0 }

func (nopCache) Get(domain.Question, time.Time) (resolver.CacheAnswer, bool) {
	return resolver.CacheAnswer{}, false
}

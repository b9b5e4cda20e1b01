// Package lru provides a small LRU-backed cache of recent block decisions.
package lru

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/ir-dns/internal/dns/repos/blocklist"
)

// decisionCache is an LRU-backed implementation of blocklist.DecisionCache.
type decisionCache struct {
	lru *lru.Cache[string, bool]
}

// disabledCache is a no-op DecisionCache used when size <= 0.
type disabledCache struct{}

// New creates a DecisionCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses.
func New(size int) (blocklist.DecisionCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, err
	}
	return &decisionCache{lru: cache}, nil
}

func (c *decisionCache) Get(name string) (bool, bool) {
	return c.lru.Get(name)
}

func (c *decisionCache) Put(name string, blocked bool) {
	c.lru.Add(name, blocked)
}

func (c *decisionCache) Len() int { return c.lru.Len() }

func (c *decisionCache) Purge() { c.lru.Purge() }

func (d *disabledCache) Get(string) (bool, bool) { return false, false }

func (d *disabledCache) Put(string, bool) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

var _ blocklist.DecisionCache = (*decisionCache)(nil)
var _ blocklist.DecisionCache = (*disabledCache)(nil)

// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/recall/core"
)

// DefaultCacheTTL is the standard freshness window for cached responses.
// Entries are never invalidated by corpus writes; staleness inside the
// window is accepted.
const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes pipeline responses with a TTL on top of an LRU.
// Expired entries are dropped lazily on read.
type Cache[V any] struct {
	entries *lru.Cache[core.ID, *timedEntry[V]]
	ttl     time.Duration
	now     func() time.Time
}

type timedEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewCache creates a cache with the given entry limit and TTL.
// Non-positive arguments take defaults (1024 entries, DefaultCacheTTL).
func NewCache[V any](size int, ttl time.Duration) (*Cache[V], error) {
	if size <= 0 {
		size = 1024
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	entries, err := lru.New[core.ID, *timedEntry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{entries: entries, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached value for key if it has not expired.
func (c *Cache[V]) Get(key core.ID) (V, bool) {
	var zero V
	entry, ok := c.entries.Get(key)
	if !ok {
		return zero, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return zero, false
	}
	return entry.value, true
}

// Set stores value under key for the cache's TTL.
func (c *Cache[V]) Set(key core.ID, value V) {
	c.entries.Add(key, &timedEntry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Len returns the number of entries, counting any not yet expired-on-read.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Purge drops every entry.
func (c *Cache[V]) Purge() {
	c.entries.Purge()
}

// CacheKey hashes the query, owner, and serialized options into a cache key.
func CacheKey(query, ownerId string, options ...string) core.ID {
	var b strings.Builder
	b.WriteString(query)
	b.WriteByte(0)
	b.WriteString(ownerId)
	for _, opt := range options {
		b.WriteByte(0)
		b.WriteString(opt)
	}
	return core.IDFromContent(b.String())
}

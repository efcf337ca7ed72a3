// Package rangecache caches range-query results keyed by an explicit
// (domain, user, start, end) record and evicts exactly the entries whose
// interval covers a mutated date.
package rangecache

import (
	"sync"
	"time"

	"github.com/daylog-app/daylog/internal/summary"
)

const defaultTTL = 5 * time.Minute

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Key identifies one cached range query. A named record, never a positional
// tuple: invalidation scans compare fields by name.
type Key struct {
	Domain summary.Domain
	UserID string
	Start  string
	End    string
}

type scope struct {
	domain summary.Domain
	user   string
}

type span struct {
	start string
	end   string
}

type entry struct {
	value    any
	cachedAt time.Time
}

// Cache is an in-memory index of range-query results. Entries live until
// invalidated or expired; an expired entry reads as a miss. All methods are
// safe for concurrent use and never block on I/O.
type Cache struct {
	clock Clock
	ttl   time.Duration

	mu     sync.RWMutex
	scopes map[scope]map[span]*entry
}

// New creates a Cache with a 5-minute entry TTL.
func New() *Cache {
	return NewWithClock(realClock{}, defaultTTL)
}

// NewWithClock creates a Cache with a custom clock and TTL (for testing).
// A non-positive ttl disables expiry.
func NewWithClock(clock Clock, ttl time.Duration) *Cache {
	return &Cache{
		clock:  clock,
		ttl:    ttl,
		scopes: make(map[scope]map[span]*entry),
	}
}

// Get returns the value cached under k, if present and fresh.
func (c *Cache) Get(k Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spans, ok := c.scopes[scope{k.Domain, k.UserID}]
	if !ok {
		return nil, false
	}
	e, ok := spans[span{k.Start, k.End}]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && !c.clock.Now().Before(e.cachedAt.Add(c.ttl)) {
		return nil, false
	}
	return e.value, true
}

// Put stores a fetch result under k, replacing any prior entry.
func (c *Cache) Put(k Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc := scope{k.Domain, k.UserID}
	spans, ok := c.scopes[sc]
	if !ok {
		spans = make(map[span]*entry)
		c.scopes[sc] = spans
	}
	spans[span{k.Start, k.End}] = &entry{value: value, cachedAt: c.clock.Now()}
}

// InvalidateDate evicts every entry for (domain, user) whose interval
// contains day. Canonical day-keys sort lexicographically, so the overlap
// test is plain string comparison. Entries for other users, other domains,
// or non-overlapping intervals stay untouched. Empty user or day is a
// precondition miss and a no-op, not an error.
func (c *Cache) InvalidateDate(domain summary.Domain, user, day string) {
	if user == "" || day == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	sc := scope{domain, user}
	spans, ok := c.scopes[sc]
	if !ok {
		return
	}
	for sp := range spans {
		if sp.start <= day && day <= sp.end {
			delete(spans, sp)
		}
	}
	if len(spans) == 0 {
		delete(c.scopes, sc)
	}
}

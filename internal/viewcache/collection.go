// Package viewcache holds per-collection caches of paginated, sorted, and
// filtered library views, so navigating back to a page does not re-query
// the store until the data goes stale.
package viewcache

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// DefaultTTL is how long cached data is trusted before a full refetch.
const DefaultTTL = 5 * time.Minute

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Comparator reports the order of a relative to b: negative, zero, or
// positive.
type Comparator[T any] func(a, b T) int

// Collection caches one library collection (albums or songs). Instances
// are constructed by and owned by the application context; there are no
// package-level singletons.
type Collection[T any] struct {
	mu          sync.Mutex
	id          func(T) int64
	comparators map[string]Comparator[T]
	ttl         time.Duration
	now         func() time.Time

	full         []T
	displayed    []T
	query        string
	queryResults []T
	sortField    string
	direction    Direction
	offset       int
	fetchedAt    time.Time
}

func New[T any](id func(T) int64, comparators map[string]Comparator[T]) *Collection[T] {
	return &Collection[T]{
		id:          id,
		comparators: comparators,
		ttl:         DefaultTTL,
		now:         time.Now,
		direction:   Ascending,
	}
}

// Stale reports whether the cached data is older than the TTL and must be
// refetched rather than trusted.
func (c *Collection[T]) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.fetchedAt.IsZero() || c.now().Sub(c.fetchedAt) > c.ttl
}

// Invalidate drops everything; the next read goes back to the store.
func (c *Collection[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.full = nil
	c.displayed = nil
	c.query = ""
	c.queryResults = nil
	c.offset = 0
	c.fetchedAt = time.Time{}
}

// Replace resets the cache to exactly items.
func (c *Collection[T]) Replace(items []T, nextOffset int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.full = append([]T(nil), items...)
	c.offset = nextOffset
	c.fetchedAt = c.now()
	c.resortLocked()
	c.refreshDisplayedLocked()
}

// MergePage appends a freshly fetched page into the full set, deduplicating
// by id, then refreshes the displayed subset.
func (c *Collection[T]) MergePage(items []T, nextOffset int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.full = lo.UniqBy(append(c.full, items...), c.id)
	c.offset = nextOffset
	if c.fetchedAt.IsZero() {
		c.fetchedAt = c.now()
	}
	c.resortLocked()
	c.refreshDisplayedLocked()
}

// SetSort orders the collection by the named field. Unknown fields leave
// the previous order untouched. Ties keep their relative order, so flipping
// direction on a fixed input yields the exact reverse.
func (c *Collection[T]) SetSort(field string, direction Direction) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.comparators[field]; ok {
		c.sortField = field
	}
	if direction == Ascending || direction == Descending {
		c.direction = direction
	}

	c.resortLocked()
	c.refreshDisplayedLocked()
	return append([]T(nil), c.displayed...)
}

// Search installs serverResults as the authoritative result set for query.
// When the server path yields nothing, fallback filters the cached full set
// instead. Both paths funnel through the current sort. An empty query
// clears the search.
func (c *Collection[T]) Search(query string, serverResults []T, fallback func(item T, query string) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		c.query = ""
		c.queryResults = nil
		c.refreshDisplayedLocked()
		return append([]T(nil), c.displayed...)
	}

	results := append([]T(nil), serverResults...)
	if len(results) == 0 && fallback != nil {
		lowered := strings.ToLower(trimmed)
		for _, item := range c.full {
			if fallback(item, lowered) {
				results = append(results, item)
			}
		}
	}

	c.query = trimmed
	c.queryResults = results
	c.resortLocked()
	c.refreshDisplayedLocked()
	return append([]T(nil), c.displayed...)
}

// Displayed returns a copy of the currently displayed subset.
func (c *Collection[T]) Displayed() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]T(nil), c.displayed...)
}

// Full returns a copy of the accumulated full set.
func (c *Collection[T]) Full() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]T(nil), c.full...)
}

// Offset returns the pagination cursor recorded by the last merge.
func (c *Collection[T]) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.offset
}

func (c *Collection[T]) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.query
}

func (c *Collection[T]) resortLocked() {
	compare, ok := c.comparators[c.sortField]
	if !ok {
		return
	}

	descending := c.direction == Descending
	orderBy := func(items []T) {
		sort.SliceStable(items, func(i, j int) bool {
			result := compare(items[i], items[j])
			if descending {
				return result > 0
			}
			return result < 0
		})
	}

	orderBy(c.full)
	if c.queryResults != nil {
		orderBy(c.queryResults)
	}
}

func (c *Collection[T]) refreshDisplayedLocked() {
	if c.query != "" {
		c.displayed = append([]T(nil), c.queryResults...)
		return
	}

	c.displayed = append([]T(nil), c.full...)
}

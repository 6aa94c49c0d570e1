package copernicus

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/piracy-data-etl-service/internal/domain"
	"github.com/couchcryptid/piracy-data-etl-service/internal/observability"
)

// CachedDataset wraps a Dataset with an in-memory LRU cache of selections.
// Cached selections are shared between callers and must not be modified.
type CachedDataset struct {
	inner   domain.Dataset
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedDataset creates a cache decorator around a dataset.
func NewCachedDataset(inner domain.Dataset, maxEntries int, metrics *observability.Metrics) *CachedDataset {
	return &CachedDataset{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedDataset) Validity() domain.TimeRange {
	return c.inner.Validity()
}

func (c *CachedDataset) Select(ctx context.Context, fields []domain.Field, w domain.Window) (domain.Selection, error) {
	key := selectionKey(fields, w)
	if sel, ok := c.cache.get(key); ok {
		c.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return sel, nil
	}
	c.metrics.DatasetCache.WithLabelValues("miss").Inc()

	sel, err := c.inner.Select(ctx, fields, w)
	if err != nil {
		return nil, err
	}
	// Empty selections are not cached.
	if len(sel) > 0 {
		c.cache.put(key, sel)
	}
	return sel, nil
}

func selectionKey(fields []domain.Field, w domain.Window) string {
	var b strings.Builder
	for _, f := range fields {
		b.WriteString(string(f))
		b.WriteByte(',')
	}
	fmt.Fprintf(&b, "|%v:%v|%v:%v|%d:%d",
		w.Lat.Min, w.Lat.Max, w.Lon.Min, w.Lon.Max,
		w.Time.Start.UnixNano(), w.Time.End.UnixNano())
	return b.String()
}

// lruCache is a simple thread-safe LRU cache of selections.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Selection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string) (domain.Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Selection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}

package rules

import (
	"container/list"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/solatis/rulekeeper/internal/types"
)

// Cache metrics, labelled by cache name ("result", "index").
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulekeeper_cache_hits_total",
		Help: "Total cache hits in the accelerated transformation engine",
	}, []string{"cache"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulekeeper_cache_misses_total",
		Help: "Total cache misses in the accelerated transformation engine",
	}, []string{"cache"})

	cacheEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rulekeeper_cache_evictions_total",
		Help: "Total FIFO evictions in the accelerated transformation engine",
	}, []string{"cache"})
)

// FIFOCache is a bounded map that evicts the oldest inserted entry when full.
// Re-putting an existing key updates the value without refreshing its age.
// It is safe for concurrent use.
type FIFOCache[K comparable, V any] struct {
	mu       sync.Mutex
	name     string
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = oldest
}

type fifoEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewFIFOCache creates a cache holding at most capacity entries.
// A non-positive capacity falls back to DefaultCacheCapacity.
func NewFIFOCache[K comparable, V any](name string, capacity int) *FIFOCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &FIFOCache[K, V]{
		name:     name,
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the cached value for key.
func (c *FIFOCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		cacheMisses.WithLabelValues(c.name).Inc()
		var zero V
		return zero, false
	}
	cacheHits.WithLabelValues(c.name).Inc()
	return elem.Value.(*fifoEntry[K, V]).value, true //nolint:errcheck // list only contains *fifoEntry
}

// Put stores value under key, evicting the oldest entry if at capacity.
func (c *FIFOCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*fifoEntry[K, V]).value = value //nolint:errcheck // list only contains *fifoEntry
		return
	}

	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*fifoEntry[K, V]).key) //nolint:errcheck // list only contains *fifoEntry
		cacheEvictions.WithLabelValues(c.name).Inc()
	}

	c.items[key] = c.order.PushBack(&fifoEntry[K, V]{key: key, value: value})
}

// Len returns the number of cached entries.
func (c *FIFOCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *FIFOCache[K, V]) Capacity() int {
	return c.capacity
}

// Clear removes all entries.
func (c *FIFOCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element)
	c.order.Init()
}

// ResultKey identifies one memoized transformation. The fingerprint makes the
// key exact: rule count alone would let two different RuleSets of the same
// size share results.
type ResultKey struct {
	Direction   types.Direction
	Mode        types.Mode
	Text        string
	RuleCount   int
	Fingerprint string
}

// ResultCache memoizes transformation output for the accelerated engine.
type ResultCache = FIFOCache[ResultKey, string]

// NewResultCache creates a result cache with the given capacity.
func NewResultCache(capacity int) *ResultCache {
	return NewFIFOCache[ResultKey, string]("result", capacity)
}

// indexKey identifies a memoized Index.
type indexKey struct {
	fingerprint string
	direction   types.Direction
}

package chunkcache

import (
	"container/list"
	"fmt"
	"sort"
	"sync"
)

// entry is one resident chunk: its number and its complete frame set.
type entry[V any] struct {
	chunkNumber uint64
	frames      map[uint64]V
}

// Cache is a bounded map from chunk number to a fully decoded frame set,
// with LRU eviction and deterministic release of resources owned by
// evicted values. A Cache is safe for concurrent use: a session's
// background Admit/EvictDownTo calls race against a caller's synchronous
// Has/Get/KeysSorted queries by design, so every method is guarded by mu.
//
// capacity is max(1, configured_limit). Every key appears exactly once
// in the backing OrderedStack (implemented with container/list); the
// entry at the back of the list is the eviction candidate.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // OrderedStack: Front = most recently admitted
	index    map[uint64]*list.Element
}

// New creates a Cache with the given capacity. A non-positive limit is
// clamped to 1.
func New[V any](capacity int) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[V]{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[uint64]*list.Element),
	}
}

// Capacity returns the effective capacity (max(1, configured_limit)).
func (c *Cache[V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Len returns the number of chunks currently resident.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Has reports whether chunkNumber is resident.
func (c *Cache[V]) Has(chunkNumber uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[chunkNumber]
	return ok
}

// Get looks up a single frame within a resident chunk. Behavior is
// undefined (returns the zero value, false) if the chunk is not present.
// Reads never reorder the OrderedStack.
func (c *Cache[V]) Get(chunkNumber, frameNumber uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[chunkNumber]
	if !ok {
		var zero V
		return zero, false
	}
	e := el.Value.(*entry[V])
	v, ok := e.frames[frameNumber]
	return v, ok
}

// Admit inserts a fully decoded chunk and pushes it onto the top (front)
// of the OrderedStack. Must not be called twice for the same chunk
// without an intervening eviction - Admit panics in that case, since it
// signals a bug in the caller's session bookkeeping rather than a
// recoverable runtime condition.
func (c *Cache[V]) Admit(chunkNumber uint64, frames map[uint64]V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[chunkNumber]; exists {
		panic(fmt.Sprintf("chunkcache: chunk %d admitted twice without eviction", chunkNumber))
	}
	el := c.order.PushFront(&entry[V]{chunkNumber: chunkNumber, frames: frames})
	c.index[chunkNumber] = el
}

// EvictDownTo pops the bottom of the OrderedStack until
// size <= capacity - min(targetFreeSlots, capacity), releasing every
// value of each popped chunk via release. release is invoked after the
// lock is dropped, since it runs caller-supplied code (a native resource
// free) that must not hold up a concurrent Has/Get/Admit call.
func (c *Cache[V]) EvictDownTo(targetFreeSlots int, release func(V)) {
	c.mu.Lock()
	if targetFreeSlots > c.capacity {
		targetFreeSlots = c.capacity
	}
	limit := c.capacity - targetFreeSlots

	var evicted []V
	for c.order.Len() > limit {
		back := c.order.Back()
		e := back.Value.(*entry[V])
		for _, v := range e.frames {
			evicted = append(evicted, v)
		}
		c.order.Remove(back)
		delete(c.index, e.chunkNumber)
	}
	c.mu.Unlock()

	for _, v := range evicted {
		release(v)
	}
}

// Clear evicts every resident chunk, releasing every value.
func (c *Cache[V]) Clear(release func(V)) {
	c.mu.Lock()
	capacity := c.capacity
	c.mu.Unlock()
	c.EvictDownTo(capacity, release)
}

// KeysSorted returns the ascending, unique chunk numbers currently
// resident.
func (c *Cache[V]) KeysSorted() []uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]uint64, 0, len(c.index))
	for k := range c.index {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

package gcache

import (
	"fmt"
	"strings"

	"github.com/gcache/gcache/hash"
)

// LRUCache is a bounded associative store over fixed-size entries: a
// circular doubly linked list for LRU order plus a NodeTable hash index,
// backed by a pool of pre-allocated nodes. Values are initialized once (or
// left at their zero value) and never destructed for the life of the
// cache; a recycled node carries the previous tenant's value payload until
// the caller overwrites it. This is deliberate: a typical use case binds
// Value to a fixed physical resource (a page buffer, a connection slot)
// whose lifetime is independent of whichever key currently occupies it.
//
// Concurrent access must be guarded by the caller; LRUCache itself performs
// no locking.
type LRUCache[Key comparable, Value any] struct {
	size     int
	capacity int

	pool      []Node[Key, Value] // nil if attached via initFrom
	extraPool []*Node[Key, Value]
	table     *NodeTable[Key, Value]

	// Dummy heads of four disjoint circular lists. Every live node is on
	// exactly one of {lru, inUse, free, erased}.
	lru, inUse, free, erased *Node[Key, Value]

	hasher hash.Hasher[Key]
}

// NewLRUCache allocates an LRUCache with the given capacity and hash
// function.
func NewLRUCache[Key comparable, Value any](capacity int, hasher hash.Hasher[Key]) (*LRUCache[Key, Value], error) {
	return newLRUCache[Key, Value](capacity, hasher, nil)
}

// NewLRUCacheWithSeed allocates an LRUCache and invokes seed once per
// freshly allocated pool slot, letting the caller pre-assign a value
// payload (e.g. a pointer to a page buffer) that will survive future
// recycling.
func NewLRUCacheWithSeed[Key comparable, Value any](capacity int, hasher hash.Hasher[Key], seed func(Handle[Key, Value])) (*LRUCache[Key, Value], error) {
	return newLRUCache[Key, Value](capacity, hasher, seed)
}

func newLRUCache[Key comparable, Value any](capacity int, hasher hash.Hasher[Key], seed func(Handle[Key, Value])) (*LRUCache[Key, Value], error) {
	if capacity <= 0 {
		return nil, invalidCapacityError(capacity)
	}
	c := &LRUCache[Key, Value]{
		capacity: capacity,
		hasher:   hasher,
		lru:      newSentinel[Key, Value](),
		inUse:    newSentinel[Key, Value](),
		free:     newSentinel[Key, Value](),
		erased:   newSentinel[Key, Value](),
	}
	c.pool = make([]Node[Key, Value], capacity)
	for i := range c.pool {
		listAppend(c.free, &c.pool[i])
	}
	c.table = &NodeTable[Key, Value]{}
	c.table.Init(capacity)
	if seed != nil {
		for i := range c.pool {
			seed(Handle[Key, Value]{node: &c.pool[i]})
		}
	}
	return c, nil
}

// initFrom attaches this cache to a pool slice and NodeTable owned by a
// SharedCache, rather than allocating its own. Used only by SharedCache to
// construct one per-tenant view into a shared pool.
func (c *LRUCache[Key, Value]) initFrom(pool []Node[Key, Value], table *NodeTable[Key, Value], capacity int) {
	assert(c.capacity == 0 && c.pool == nil && c.table == nil,
		"initFrom called on an already-initialized cache")
	assert(capacity > 0, "capacity must be positive")
	c.capacity = capacity
	c.table = table
	c.lru = newSentinel[Key, Value]()
	c.inUse = newSentinel[Key, Value]()
	c.free = newSentinel[Key, Value]()
	c.erased = newSentinel[Key, Value]()
	for i := range pool {
		listAppend(c.free, &pool[i])
	}
}

// Size returns the number of entries currently tracked (lru + inUse).
func (c *LRUCache[Key, Value]) Size() int { return c.size }

// Capacity returns the cache's current semantic budget for live nodes.
func (c *LRUCache[Key, Value]) Capacity() int { return c.capacity }

// Insert inserts key into the cache if absent. If hintNonexist is false,
// Insert first looks the key up; on a hit it refreshes LRU (and pins, if
// requested) and returns the existing handle. If hintNonexist is true, the
// caller is asserting the key is not already present, skipping that
// lookup. Returns the null handle if the cache is full and every slot is
// pinned.
func (c *LRUCache[Key, Value]) Insert(key Key, pin, hintNonexist bool) Handle[Key, Value] {
	h := c.hasher.Hash(key)
	return Handle[Key, Value]{node: c.insertImpl(key, h, pin, hintNonexist)}
}

// Lookup searches for key, returning the null handle if absent. A hit
// refreshes LRU order and, if pin is true, pins the entry.
func (c *LRUCache[Key, Value]) Lookup(key Key, pin bool) Handle[Key, Value] {
	h := c.hasher.Hash(key)
	return Handle[Key, Value]{node: c.lookupImpl(key, h, pin)}
}

// Release unpins a handle previously pinned by Insert/Lookup/Pin. The
// handle must currently be pinned (refs > 1); violating this is an
// invariant violation, not a runtime error (see debug.go).
func (c *LRUCache[Key, Value]) Release(h Handle[Key, Value]) {
	e := h.node
	assert(e.refs > 1, "release called on a handle that was not pinned")
	c.unref(e)
}

// Pin increases a handle's reference count, moving it to the in-use list
// on its first pin. Must be matched by a later Release.
func (c *LRUCache[Key, Value]) Pin(h Handle[Key, Value]) { c.ref(h.node) }

// Erase removes handle from the lru list, returning false (and doing
// nothing) if it is pinned. The erased node's value becomes undefined
// (logically garbage) until a later Install reuses the slot.
func (c *LRUCache[Key, Value]) Erase(h Handle[Key, Value]) bool {
	e := h.node
	if e == nil || e.refs != 1 {
		return false
	}
	listRemove(e)
	listAppend(c.erased, e)
	e.refs = 0
	removed := c.table.Remove(e.key, e.hash)
	assert(removed == e, "erased node was missing from the NodeTable")
	c.size--
	c.capacity--
	return true
}

// Install adds key back into the live set outside normal LRU churn,
// reusing an erased slot if one is available or else allocating a new
// heap node. The caller must overwrite the returned handle's value before
// reading it.
func (c *LRUCache[Key, Value]) Install(key Key) Handle[Key, Value] {
	return Handle[Key, Value]{node: c.installImpl(key)}
}

func (c *LRUCache[Key, Value]) installImpl(key Key) *Node[Key, Value] {
	var e *Node[Key, Value]
	if listEmpty(c.erased) {
		e = new(Node[Key, Value])
		c.extraPool = append(c.extraPool, e)
	} else {
		e = c.erased.next
		listRemove(e)
	}
	e.init(key, c.hasher.Hash(key))
	c.table.Insert(e)
	listAppend(c.lru, e)
	c.size++
	c.capacity++
	return e
}

// ForEach visits every live entry, LRU-ordered entries first, then in-use
// entries in no particular order.
func (c *LRUCache[Key, Value]) ForEach(fn func(Handle[Key, Value])) {
	c.ForEachLRU(fn)
	c.ForEachInUse(fn)
}

// ForEachLRU visits entries on the LRU list from oldest to newest.
func (c *LRUCache[Key, Value]) ForEachLRU(fn func(Handle[Key, Value])) {
	for h := c.lru.next; h != c.lru; h = h.next {
		fn(Handle[Key, Value]{node: h})
	}
}

// ForEachMRU visits entries on the LRU list from newest to oldest.
func (c *LRUCache[Key, Value]) ForEachMRU(fn func(Handle[Key, Value])) {
	for h := c.lru.prev; h != c.lru; h = h.prev {
		fn(Handle[Key, Value]{node: h})
	}
}

// ForEachInUse visits pinned entries in no particular order.
func (c *LRUCache[Key, Value]) ForEachInUse(fn func(Handle[Key, Value])) {
	for h := c.inUse.next; h != c.inUse; h = h.next {
		fn(Handle[Key, Value]{node: h})
	}
}

// ForEachUntilLRU is ForEachLRU, stopping early when fn returns false.
func (c *LRUCache[Key, Value]) ForEachUntilLRU(fn func(Handle[Key, Value]) bool) {
	for h := c.lru.next; h != c.lru; h = h.next {
		if !fn(Handle[Key, Value]{node: h}) {
			return
		}
	}
}

// ForEachUntilMRU is ForEachMRU, stopping early when fn returns false.
func (c *LRUCache[Key, Value]) ForEachUntilMRU(fn func(Handle[Key, Value]) bool) {
	for h := c.lru.prev; h != c.lru; h = h.prev {
		if !fn(Handle[Key, Value]{node: h}) {
			return
		}
	}
}

func (c *LRUCache[Key, Value]) insertImpl(key Key, h uint32, pin, hintNonexist bool) *Node[Key, Value] {
	assert(c.capacity > 0, "insert called before the cache has capacity")
	var e *Node[Key, Value]
	if !hintNonexist {
		e = c.lookupImpl(key, h, pin)
		if e != nil {
			return e
		}
	} else if debugging {
		assert(c.table.Lookup(key, h) == nil, "hint_nonexist was violated")
	}
	e = c.allocNode()
	if e == nil {
		return nil
	}
	e.init(key, h)
	c.table.Insert(e)
	assert(e.refs == 1, "freshly allocated node must start with refs==1")
	if pin {
		e.refs++
		listAppend(c.inUse, e)
	} else {
		listAppend(c.lru, e)
	}
	c.size++
	return e
}

func (c *LRUCache[Key, Value]) lookupImpl(key Key, h uint32, pin bool) *Node[Key, Value] {
	e := c.table.Lookup(key, h)
	if e != nil {
		c.lookupRefresh(e, pin)
	}
	return e
}

func (c *LRUCache[Key, Value]) lookupRefresh(n *Node[Key, Value], pin bool) {
	if pin {
		c.ref(n)
	} else if n.refs == 1 {
		c.lruRefresh(n)
	}
}

// refresh is the fast path GhostCache drives: unlike insertImpl it never
// pins, and it reports successor, the node that now occupies the accessed
// node's former list position (nil if a brand new node was inserted, or
// the node itself if it was already MRU).
func (c *LRUCache[Key, Value]) refresh(key Key, h uint32) (node, successor *Node[Key, Value]) {
	assert(c.capacity > 0, "refresh called before the cache has capacity")
	if e := c.table.Lookup(key, h); e != nil {
		return e, c.lruRefresh(e)
	}
	e := c.allocNode()
	if e == nil {
		return nil, nil
	}
	e.init(key, h)
	c.table.Insert(e)
	assert(e.refs == 1, "freshly allocated node must start with refs==1")
	listAppend(c.lru, e)
	c.size++
	return e, nil
}

// preempt hands a free cache slot back to a caller (SharedCache), lowering
// capacity by one. It prefers the free list, falling back to evicting the
// current LRU tail, and returns nil if neither is available.
func (c *LRUCache[Key, Value]) preempt() *Node[Key, Value] {
	e := c.allocNode()
	if e != nil {
		c.capacity--
	}
	return e
}

// assign gives this cache a node obtained from another tenant's preempt,
// raising capacity by one.
func (c *LRUCache[Key, Value]) assign(e *Node[Key, Value]) {
	c.capacity++
	c.freeNode(e)
}

func (c *LRUCache[Key, Value]) allocNode() *Node[Key, Value] {
	if !listEmpty(c.free) {
		e := c.free.next
		listRemove(e)
		return e
	}
	if listEmpty(c.lru) {
		return nil
	}
	e := c.lru.next
	assert(e.refs == 1, "lru entry selected for eviction must have refs==1")
	listRemove(e)
	removed := c.table.Remove(e.key, e.hash)
	assert(removed == e, "evicted node was missing from the NodeTable")
	c.size--
	return e
}

func (c *LRUCache[Key, Value]) freeNode(e *Node[Key, Value]) {
	listAppend(c.free, e)
}

func (c *LRUCache[Key, Value]) ref(e *Node[Key, Value]) {
	if e.refs == 1 { // moving from lru to in-use
		listRemove(e)
		listAppend(c.inUse, e)
	}
	e.refs++
}

func (c *LRUCache[Key, Value]) unref(e *Node[Key, Value]) {
	assert(e.refs > 0, "unref called on a node with refs==0")
	e.refs--
	switch e.refs {
	case 0:
		c.freeNode(e)
	case 1:
		listRemove(e)
		listAppend(c.lru, e)
	}
}

// lruRefresh moves e to the MRU position and reports the node that now
// occupies e's old spot (e itself if it was already MRU).
func (c *LRUCache[Key, Value]) lruRefresh(e *Node[Key, Value]) *Node[Key, Value] {
	assert(e != c.lru, "lruRefresh called on the sentinel")
	assert(e.refs == 1, "lruRefresh called on a pinned node")
	successor := e.next
	if successor == c.lru {
		return e // already MRU
	}
	listRemove(e)
	listAppend(c.lru, e)
	return successor
}

// String renders the lru/in_use lists by key, for debugging and tests.
func (c *LRUCache[Key, Value]) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "LRUCache(capacity=%d, size=%d) { lru: [", c.capacity, c.size)
	first := true
	c.ForEachLRU(func(h Handle[Key, Value]) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v", h.Key())
	})
	b.WriteString("], in_use: [")
	first = true
	c.ForEachInUse(func(h Handle[Key, Value]) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%v", h.Key())
	})
	b.WriteString("] }")
	return b.String()
}

package gcache

import "github.com/gcache/gcache/hash"

// taggedValue is what SharedCache actually stores as each node's payload:
// the caller's value plus the tenant tag that owns the node, so any node
// reachable from the shared NodeTable can report which tenant's LRU list
// it's threaded onto.
type taggedValue[Tag comparable, Value any] struct {
	tag   Tag
	value Value
}

// TenantConfig is one (tag, capacity) entry passed to NewSharedCache.
type TenantConfig[Tag comparable] struct {
	Tag      Tag
	Capacity int
}

// SharedCache is a multi-tenant façade over one shared Node pool and one
// shared NodeTable: each tenant gets its own LRUCache view (its own
// lru/in_use/free/erased lists and its own capacity/size counters) over a
// disjoint slice of the pool, but a lookup by key alone can find any
// tenant's entry, because all views share one table.
//
// That sharing carries a known hazard, preserved from the reference
// implementation as a FIXME: Lookup refreshes the *owning* tenant's LRU
// even when a different tenant's caller issued the lookup. There is no
// per-tenant isolation of access patterns once tenants are looked up by
// bare key.
type SharedCache[Tag comparable, Key comparable, Value any] struct {
	pool  []Node[Key, taggedValue[Tag, Value]]
	table *NodeTable[Key, taggedValue[Tag, Value]]
	views map[Tag]*LRUCache[Key, taggedValue[Tag, Value]]
	order []Tag

	hasher hash.Hasher[Key]
}

// NewSharedCache allocates one pool sized to the sum of every tenant's
// capacity, one NodeTable sized the same, and one LRUCache view per
// tenant pointing into disjoint slices of the pool.
func NewSharedCache[Tag comparable, Key comparable, Value any](configs []TenantConfig[Tag], hasher hash.Hasher[Key]) (*SharedCache[Tag, Key, Value], error) {
	total := 0
	for _, cfg := range configs {
		if cfg.Capacity <= 0 {
			return nil, invalidCapacityError(cfg.Capacity)
		}
		total += cfg.Capacity
	}
	if total <= 0 {
		return nil, invalidCapacityError(total)
	}
	sc := &SharedCache[Tag, Key, Value]{
		pool:   make([]Node[Key, taggedValue[Tag, Value]], total),
		table:  &NodeTable[Key, taggedValue[Tag, Value]]{},
		views:  make(map[Tag]*LRUCache[Key, taggedValue[Tag, Value]], len(configs)),
		order:  make([]Tag, 0, len(configs)),
		hasher: hasher,
	}
	sc.table.Init(total)
	offset := 0
	for _, cfg := range configs {
		view := &LRUCache[Key, taggedValue[Tag, Value]]{hasher: hasher}
		view.initFrom(sc.pool[offset:offset+cfg.Capacity], sc.table, cfg.Capacity)
		sc.views[cfg.Tag] = view
		sc.order = append(sc.order, cfg.Tag)
		offset += cfg.Capacity
	}
	return sc, nil
}

// Tags returns the configured tenant tags in construction order.
func (sc *SharedCache[Tag, Key, Value]) Tags() []Tag {
	out := make([]Tag, len(sc.order))
	copy(out, sc.order)
	return out
}

// SharedHandle is SharedCache's Handle: like Handle, but also reports the
// tenant tag that currently owns the referenced entry.
type SharedHandle[Tag comparable, Key comparable, Value any] struct {
	node *Node[Key, taggedValue[Tag, Value]]
}

func (h SharedHandle[Tag, Key, Value]) IsValid() bool { return h.node != nil }
func (h SharedHandle[Tag, Key, Value]) IsNull() bool  { return h.node == nil }
func (h SharedHandle[Tag, Key, Value]) Key() Key      { return h.node.key }
func (h SharedHandle[Tag, Key, Value]) Value() Value  { return h.node.value.value }
func (h SharedHandle[Tag, Key, Value]) Tag() Tag      { return h.node.value.tag }
func (h SharedHandle[Tag, Key, Value]) SetValue(v Value) {
	h.node.value.value = v
}

// Insert looks the key up table-wide first; a hit (in any tenant) refreshes
// the owning tenant's LRU and returns that handle. A miss allocates a slot
// from tag's view specifically and stamps tag into the new node.
func (sc *SharedCache[Tag, Key, Value]) Insert(tag Tag, key Key, pin, hintNonexist bool) SharedHandle[Tag, Key, Value] {
	h := sc.hasher.Hash(key)
	if existing := sc.table.Lookup(key, h); existing != nil {
		owner := sc.views[existing.value.tag]
		owner.lookupRefresh(existing, pin)
		return SharedHandle[Tag, Key, Value]{node: existing}
	}
	if debugging && hintNonexist {
		assert(sc.table.Lookup(key, h) == nil, "hint_nonexist was violated")
	}
	view, ok := sc.views[tag]
	assert(ok, "insert called with an unconfigured tenant tag")
	node := view.insertImpl(key, h, pin, true)
	if node == nil {
		return SharedHandle[Tag, Key, Value]{}
	}
	node.value.tag = tag
	return SharedHandle[Tag, Key, Value]{node: node}
}

// Lookup searches the shared table by key alone, with no tag required.
// See the FIXME in the type doc: this refreshes the owning tenant's LRU
// regardless of which tenant's caller issued the lookup.
func (sc *SharedCache[Tag, Key, Value]) Lookup(key Key, pin bool) SharedHandle[Tag, Key, Value] {
	h := sc.hasher.Hash(key)
	node := sc.table.Lookup(key, h)
	if node == nil {
		return SharedHandle[Tag, Key, Value]{}
	}
	owner := sc.views[node.value.tag]
	owner.lookupRefresh(node, pin)
	return SharedHandle[Tag, Key, Value]{node: node}
}

// Release routes to the owning tenant, recovered from the node's stored
// tag.
func (sc *SharedCache[Tag, Key, Value]) Release(h SharedHandle[Tag, Key, Value]) {
	owner := sc.views[h.node.value.tag]
	owner.unref(h.node)
}

// Pin routes to the owning tenant.
func (sc *SharedCache[Tag, Key, Value]) Pin(h SharedHandle[Tag, Key, Value]) {
	owner := sc.views[h.node.value.tag]
	owner.ref(h.node)
}

// Erase routes to the owning tenant; see LRUCache.Erase.
func (sc *SharedCache[Tag, Key, Value]) Erase(h SharedHandle[Tag, Key, Value]) bool {
	if h.node == nil {
		return false
	}
	owner := sc.views[h.node.value.tag]
	return owner.Erase(Handle[Key, taggedValue[Tag, Value]]{node: h.node})
}

// Install adds key to tag's view outside normal LRU churn; see
// LRUCache.Install.
func (sc *SharedCache[Tag, Key, Value]) Install(tag Tag, key Key) SharedHandle[Tag, Key, Value] {
	view, ok := sc.views[tag]
	assert(ok, "install called with an unconfigured tenant tag")
	node := view.installImpl(key)
	node.value.tag = tag
	return SharedHandle[Tag, Key, Value]{node: node}
}

// Relocate moves up to n slots from src's view to dst's view, via repeated
// preempt/assign, stopping early if src runs dry. It returns the number
// actually transferred and adjusts CapacityOf(src)/CapacityOf(dst)
// accordingly; their sum is preserved.
func (sc *SharedCache[Tag, Key, Value]) Relocate(src, dst Tag, n int) int {
	srcView, ok := sc.views[src]
	assert(ok, "relocate called with an unconfigured source tag")
	dstView, ok := sc.views[dst]
	assert(ok, "relocate called with an unconfigured destination tag")
	moved := 0
	for moved < n {
		node := srcView.preempt()
		if node == nil {
			break
		}
		dstView.assign(node)
		moved++
	}
	return moved
}

// CapacityOf returns tag's current capacity budget.
func (sc *SharedCache[Tag, Key, Value]) CapacityOf(tag Tag) int {
	view, ok := sc.views[tag]
	assert(ok, "capacity_of called with an unconfigured tenant tag")
	return view.Capacity()
}

// SizeOf returns tag's current live entry count.
func (sc *SharedCache[Tag, Key, Value]) SizeOf(tag Tag) int {
	view, ok := sc.views[tag]
	assert(ok, "size_of called with an unconfigured tenant tag")
	return view.Size()
}

// ForEachLRU visits tag's LRU list, oldest to newest.
func (sc *SharedCache[Tag, Key, Value]) ForEachLRU(tag Tag, fn func(SharedHandle[Tag, Key, Value])) {
	view, ok := sc.views[tag]
	assert(ok, "for_each_lru called with an unconfigured tenant tag")
	view.ForEachLRU(func(h Handle[Key, taggedValue[Tag, Value]]) {
		fn(SharedHandle[Tag, Key, Value]{node: h.node})
	})
}

// ExportedNode holds a node's key and value after ExportNode detaches it
// from LRU management, so ImportNode can later reattach the same payload
// under a (possibly different) tenant without the caller re-supplying the
// value, unlike the Erase+Install round trip.
type ExportedNode[Key comparable, Value any] struct {
	Key   Key
	Value Value
}

// ExportNode detaches a live, unpinned entry from its owning tenant's LRU
// and the shared table, returning its key and value for later re-import.
// Fails (ok=false) if the handle is null or pinned.
func (sc *SharedCache[Tag, Key, Value]) ExportNode(h SharedHandle[Tag, Key, Value]) (exported ExportedNode[Key, Value], ok bool) {
	node := h.node
	if node == nil || node.refs != 1 {
		return ExportedNode[Key, Value]{}, false
	}
	owner := sc.views[node.value.tag]
	listRemove(node)
	listAppend(owner.erased, node)
	node.refs = 0
	removed := sc.table.Remove(node.key, node.hash)
	assert(removed == node, "exported node was missing from the shared NodeTable")
	owner.size--
	owner.capacity--
	return ExportedNode[Key, Value]{Key: node.key, Value: node.value.value}, true
}

// ImportNode reattaches a previously exported node under tag, reusing an
// erased slot (or allocating overflow) in tag's view, with the exported
// key and value restored in one step.
func (sc *SharedCache[Tag, Key, Value]) ImportNode(tag Tag, exported ExportedNode[Key, Value]) SharedHandle[Tag, Key, Value] {
	view, ok := sc.views[tag]
	assert(ok, "import_node called with an unconfigured tenant tag")
	node := view.installImpl(exported.Key)
	node.value.tag = tag
	node.value.value = exported.Value
	return SharedHandle[Tag, Key, Value]{node: node}
}

package gcache

// Node is a slot in a pool, carrying a key/value pair and the cache's
// bookkeeping. It participates in exactly two intrusive structures at once:
// a circular doubly linked list (prev/next) that tracks LRU order, and a
// singly linked hash-bucket chain (nextHash) that the NodeTable walks.
//
// A live node is always on exactly one of the lists {lru, inUse, free,
// erased}; it is present in the NodeTable iff it is on lru or inUse. refs
// counts external pins plus the implicit reference the lru/inUse lists
// themselves hold: 1 while merely resident (on lru), >=2 while pinned (on
// inUse).
type Node[Key comparable, Value any] struct {
	prev, next *Node[Key, Value]
	nextHash   *Node[Key, Value]

	key   Key
	hash  uint32
	refs  uint32
	value Value
}

// init re-initializes a recycled (or freshly allocated) node for a new key.
// Fields carried over from a previous tenancy of this slot (the value, in
// particular) are left untouched: the pool's whole point is that a node's
// value payload can outlive the key it's currently bound to.
func (n *Node[Key, Value]) init(key Key, hash uint32) {
	n.refs = 1
	n.hash = hash
	n.key = key
}

// newSentinel returns a node usable only as a dummy list head: its own
// prev/next point to itself, forming an empty circular list.
func newSentinel[Key comparable, Value any]() *Node[Key, Value] {
	s := new(Node[Key, Value])
	s.prev = s
	s.next = s
	return s
}

// listRemove unlinks n from whichever circular list currently holds it.
func listRemove[Key comparable, Value any](n *Node[Key, Value]) {
	n.next.prev = n.prev
	n.prev.next = n.next
}

// listAppend makes n the newest entry of the list headed by the sentinel
// `head`, i.e. inserts n just before head (head.prev is always the
// most-recently-appended element).
func listAppend[Key comparable, Value any](head, n *Node[Key, Value]) {
	n.next = head
	n.prev = head.prev
	n.prev.next = n
	n.next.prev = n
}

func listEmpty[Key comparable, Value any](head *Node[Key, Value]) bool {
	return head.next == head
}

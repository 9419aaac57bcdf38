// Package gcache implements a bounded LRU cache core and a family of
// "ghost" caches built on top of it. A ghost cache never stores real
// values — it tracks just enough bookkeeping to report, from a single
// pass over an access stream, the hit rate that a real LRU cache of any
// size in a configured spectrum would have achieved.
//
// # LRU core
//
// LRUCache is a fixed-capacity pool of Nodes threaded onto a circular
// doubly linked list (for LRU order) and indexed by a NodeTable (a
// power-of-two open-chained hash table keyed by (key, hash)). Entries can
// be pinned (Pin/Release) to exclude them from eviction, erased outside
// normal LRU churn (Erase/Install), and handed between cooperating
// LRUCache views (preempt/assign, used by SharedCache).
//
// # Ghost caches
//
// GhostCache answers "what would the hit rate be at size N?" for every N
// in {min, min+tick, ..., max} from one O(1)-amortized pass per access. It
// does this by maintaining a boundary pointer into the LRU list for each
// size below max, plus a histogram of which size band each hit's reuse
// distance falls into; per-size stats are lazily rematerialized from that
// histogram on query.
//
// SampledGhostCache trades accuracy for a 2^shift reduction in memory and
// CPU: it processes only the fraction of the keyspace whose hash's top
// shift bits are all zero, runs a GhostCache over a correspondingly
// shrunk spectrum, and scales every externally visible size back up.
// SampledGhostKvCache is the byte-size-aware sibling: instead of a curve
// indexed by entry count, GetCacheStatCurve reports one keyed by
// cumulative value size.
//
// SharedCache is a multi-tenant façade: multiple LRUCache views share one
// pool and one NodeTable, so capacity can be reassigned between tenants
// (Relocate) without reallocating the pool or the table (a slot taken from
// a tenant with no free slot evicts that tenant's oldest entry from the
// table), at the cost of a documented
// cross-tenant lookup hazard (see SharedCache's doc comment).
//
// None of these types are safe for concurrent use; callers needing
// concurrent access must provide their own external synchronization.
package gcache

package gcache

import (
	"reflect"
	"testing"

	"github.com/gcache/gcache/hash"
)

func TestSharedCacheRelocate(t *testing.T) {
	sc, err := NewSharedCache[string, uint32, int]([]TenantConfig[string]{
		{Tag: "t1", Capacity: 3},
		{Tag: "t2", Capacity: 2},
	}, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewSharedCache: %v", err)
	}

	for _, k := range []uint32{3, 5, 2} {
		if h := sc.Insert("t1", k, false, false); h.IsNull() {
			t.Fatalf("insert(t1, %d) failed", k)
		}
	}
	for _, k := range []uint32{4, 6} {
		if h := sc.Insert("t2", k, false, false); h.IsNull() {
			t.Fatalf("insert(t2, %d) failed", k)
		}
	}

	if moved := sc.Relocate("t1", "t2", 2); moved != 2 {
		t.Fatalf("Relocate moved %d slots, want 2", moved)
	}
	if got, want := sc.CapacityOf("t1"), 1; got != want {
		t.Fatalf("capacity_of(t1) = %d, want %d", got, want)
	}
	if got, want := sc.CapacityOf("t2"), 4; got != want {
		t.Fatalf("capacity_of(t2) = %d, want %d", got, want)
	}

	var t1Keys, t2Keys []uint32
	sc.ForEachLRU("t1", func(h SharedHandle[string, uint32, int]) { t1Keys = append(t1Keys, h.Key()) })
	sc.ForEachLRU("t2", func(h SharedHandle[string, uint32, int]) { t2Keys = append(t2Keys, h.Key()) })
	if got, want := t1Keys, []uint32{2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("t1 lru = %v, want %v", got, want)
	}
	if got, want := t2Keys, []uint32{4, 6}; !reflect.DeepEqual(got, want) {
		t.Fatalf("t2 lru = %v, want %v", got, want)
	}
}

// TestSharedCacheCrossTenantLookupRefreshesOwner preserves a documented
// FIXME from the reference implementation: Lookup needs no tenant tag,
// and it always refreshes the *owning* tenant's LRU, never the caller's.
func TestSharedCacheCrossTenantLookupRefreshesOwner(t *testing.T) {
	sc, err := NewSharedCache[string, uint32, int]([]TenantConfig[string]{
		{Tag: "t1", Capacity: 2},
		{Tag: "t2", Capacity: 2},
	}, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewSharedCache: %v", err)
	}
	sc.Insert("t1", 1, false, false)
	sc.Insert("t1", 2, false, false)

	h := sc.Lookup(1, false)
	if h.IsNull() || h.Tag() != "t1" {
		t.Fatalf("lookup(1) = (null=%v, tag=%v), want tag t1", h.IsNull(), h.Tag())
	}

	var keys []uint32
	sc.ForEachLRU("t1", func(h SharedHandle[string, uint32, int]) { keys = append(keys, h.Key()) })
	if got, want := keys, []uint32{2, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("t1 lru after lookup(1) = %v, want %v (1 refreshed to MRU)", got, want)
	}
}

func TestSharedCacheExportImport(t *testing.T) {
	sc, err := NewSharedCache[string, uint32, int]([]TenantConfig[string]{
		{Tag: "t1", Capacity: 2},
		{Tag: "t2", Capacity: 2},
	}, hash.IdentityUint32{})
	if err != nil {
		t.Fatalf("NewSharedCache: %v", err)
	}
	h := sc.Insert("t1", 1, false, false)
	h.SetValue(42)

	exported, ok := sc.ExportNode(h)
	if !ok {
		t.Fatal("ExportNode on a live, unpinned handle should succeed")
	}
	if exported.Key != 1 || exported.Value != 42 {
		t.Fatalf("exported = %+v, want {Key:1 Value:42}", exported)
	}
	if sc.SizeOf("t1") != 0 {
		t.Fatalf("size_of(t1) after export = %d, want 0", sc.SizeOf("t1"))
	}

	imported := sc.ImportNode("t2", exported)
	if imported.Key() != 1 || imported.Value() != 42 || imported.Tag() != "t2" {
		t.Fatalf("imported = (key=%v, value=%v, tag=%v), want (1, 42, t2)",
			imported.Key(), imported.Value(), imported.Tag())
	}
	if sc.SizeOf("t2") != 1 {
		t.Fatalf("size_of(t2) after import = %d, want 1", sc.SizeOf("t2"))
	}
}

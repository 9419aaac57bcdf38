package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/gcache/gcache"
	"github.com/gcache/gcache/hash"
)

func TestCollectorExportsHitRate(t *testing.T) {
	ghost, err := gcache.NewGhostCache[uint32](1, 3, 6, hash.IdentityUint32{})
	require.NoError(t, err)
	for _, k := range []uint32{0, 1, 2, 3, 2} {
		ghost.Access(k, gcache.Default)
	}

	collector := NewCollector[uint32](ghost, "gcache", "ghost")
	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(collector))

	families, err := registry.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var sawHitRate bool
	for _, f := range families {
		if f.GetName() == "gcache_ghost_hit_rate" {
			sawHitRate = true
			require.Len(t, f.GetMetric(), 4) // one sample per size in {3,4,5,6}
		}
	}
	require.True(t, sawHitRate, "expected a gcache_ghost_hit_rate metric family")
}

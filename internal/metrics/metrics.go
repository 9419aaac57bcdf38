// Package metrics adapts a GhostCache's per-size hit/miss counts into a
// Prometheus collector, for processes that want to scrape a live
// miss-rate curve rather than poll GetStat directly.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gcache/gcache"
)

// Collector exports one GhostCache's spectrum as three gauge vectors
// (hit_count, miss_count, hit_rate), each labeled by the cache size the
// sample describes. It implements prometheus.Collector, so it can be
// registered directly with a Registry.
type Collector[K comparable] struct {
	ghost *gcache.GhostCache[K]

	hitCount  *prometheus.GaugeVec
	missCount *prometheus.GaugeVec
	hitRate   *prometheus.GaugeVec
}

// NewCollector wraps ghost for Prometheus export under the given
// namespace/subsystem.
func NewCollector[K comparable](ghost *gcache.GhostCache[K], namespace, subsystem string) *Collector[K] {
	labels := []string{"size"}
	return &Collector[K]{
		ghost: ghost,
		hitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "hit_count", Help: "Simulated cumulative hits at this cache size.",
		}, labels),
		missCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "miss_count", Help: "Simulated cumulative misses at this cache size.",
		}, labels),
		hitRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "hit_rate", Help: "Simulated hit rate at this cache size.",
		}, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector[K]) Describe(ch chan<- *prometheus.Desc) {
	c.hitCount.Describe(ch)
	c.missCount.Describe(ch)
	c.hitRate.Describe(ch)
}

// Collect implements prometheus.Collector: it re-queries every size in
// the ghost cache's spectrum and refreshes all three gauge vectors.
func (c *Collector[K]) Collect(ch chan<- prometheus.Metric) {
	c.hitCount.Reset()
	c.missCount.Reset()
	c.hitRate.Reset()

	min, tick, n := c.ghost.MinSize(), c.ghost.Tick(), c.ghost.NumSizes()
	for k := uint32(0); k < n; k++ {
		size := min + k*tick
		label := strconv.FormatUint(uint64(size), 10)
		stat := c.ghost.GetStat(size)
		hit, miss := stat.Snapshot()
		c.hitCount.WithLabelValues(label).Set(float64(hit))
		c.missCount.WithLabelValues(label).Set(float64(miss))
		c.hitRate.WithLabelValues(label).Set(stat.HitRate())
	}

	c.hitCount.Collect(ch)
	c.missCount.Collect(ch)
	c.hitRate.Collect(ch)
}

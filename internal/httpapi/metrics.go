package httpapi

import (
	"fmt"
	"net/http"
)

// HandleMetrics writes the engine's Metrics snapshot in Prometheus text
// exposition format (version 0.0.4), by hand, with no client library
// dependency.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	m := h.engine.Metrics()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	writeMetric(w, "canonstore_puts_total", "Total number of put operations.", "counter", m.Puts)
	writeMetric(w, "canonstore_gets_total", "Total number of get operations.", "counter", m.Gets)
	writeMetric(w, "canonstore_removes_total", "Total number of remove operations.", "counter", m.Removes)
	writeMetric(w, "canonstore_clears_total", "Total number of clear operations.", "counter", m.Clears)

	writeGauge(w, "canonstore_store_size", "Number of entries currently stored.", int64(m.StoreSize))
	writeMetric(w, "canonstore_consistency_faults_total", "Cumulative count of store consistency faults repaired or skipped.", "counter", m.ConsistencyFaults)

	writeGauge(w, "canonstore_cache_enabled", "Whether the tiered fingerprint cache is enabled (1) or not (0).", boolToInt64(m.CacheEnabled))
	writeMetric(w, "canonstore_cache_l1_hits_total", "Total tiered cache L1 hits.", "counter", m.CacheL1Hits)
	writeMetric(w, "canonstore_cache_l2_hits_total", "Total tiered cache L2 hits.", "counter", m.CacheL2Hits)
	writeMetric(w, "canonstore_cache_misses_total", "Total tiered cache misses.", "counter", m.CacheMisses)
	writeMetric(w, "canonstore_cache_promotions_total", "Total L2-to-L1 promotions.", "counter", m.CachePromotions)
	writeMetric(w, "canonstore_cache_evictions_total", "Total cache evictions.", "counter", m.CacheEvictions)

	writeGauge(w, "canonstore_plugins_registered", "Number of registered plugins.", int64(m.PluginCount))
	writeGauge(w, "canonstore_plugins_enabled", "Number of enabled plugins.", int64(m.PluginEnabledCount))
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func writeMetric(w http.ResponseWriter, name, help, metricType string, value uint64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, metricType)
	fmt.Fprintf(w, "%s %d\n", name, value)
}

func writeGauge(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s gauge\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}

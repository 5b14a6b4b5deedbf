package canonstore

// Metrics is a snapshot of engine-wide operation counters and subsystem
// statistics, forming the engine's introspection surface.
type Metrics struct {
	Puts    uint64
	Gets    uint64
	Removes uint64
	Clears  uint64

	StoreSize          int
	ConsistencyFaults  uint64
	CacheEnabled       bool
	CacheL1Hits        uint64
	CacheL2Hits        uint64
	CacheMisses        uint64
	CachePromotions    uint64
	CacheEvictions     uint64
	PluginCount        int
	PluginEnabledCount int

	// AvgPutLatencyMicros and AvgGetLatencyMicros are populated only when
	// Options.TrackPerformance was set; they stay zero otherwise.
	AvgPutLatencyMicros float64
	AvgGetLatencyMicros float64
}

// Metrics returns a snapshot of the engine's counters.
func (e *Engine) Metrics() Metrics {
	m := Metrics{
		Puts:              e.puts.Load(),
		Gets:              e.gets.Load(),
		Removes:           e.removes.Load(),
		Clears:            e.clears.Load(),
		StoreSize:         e.primary.Size(),
		ConsistencyFaults: e.primary.ConsistencyFaults(),
		CacheEnabled:      e.cache != nil,
	}
	if e.cache != nil {
		cs := e.cache.Stats()
		m.CacheL1Hits = cs.L1Hits
		m.CacheL2Hits = cs.L2Hits
		m.CacheMisses = cs.Misses
		m.CachePromotions = cs.Promotions
		m.CacheEvictions = cs.Evictions
	}
	for _, info := range e.plugins.List() {
		m.PluginCount++
		if info.State.String() == "enabled" {
			m.PluginEnabledCount++
		}
	}
	if e.optsCopy.TrackPerformance {
		if m.Puts > 0 {
			m.AvgPutLatencyMicros = float64(e.putNanos.Load()) / float64(m.Puts) / 1000
		}
		if m.Gets > 0 {
			m.AvgGetLatencyMicros = float64(e.getNanos.Load()) / float64(m.Gets) / 1000
		}
	}
	return m
}

// Diagnostics is a deeper snapshot than Metrics, intended for operator
// tooling rather than hot-path monitoring: it names every registered
// plugin and its fault count alongside the raw metrics.
type Diagnostics struct {
	Metrics
	InFallback bool
	Plugins    []PluginDiagnostic
}

// PluginDiagnostic summarizes one registered plugin for Diagnostics.
type PluginDiagnostic struct {
	Name     string
	Priority int
	State    string
	Faults   int
}

// Diagnostics returns a detailed snapshot for operator-facing tooling. If
// Options.DisableDiagnostics was set, the per-plugin detail is omitted and
// only Metrics plus InFallback are populated.
func (e *Engine) Diagnostics() Diagnostics {
	d := Diagnostics{
		Metrics:    e.Metrics(),
		InFallback: e.recov.InFallback(),
	}
	if e.optsCopy.DisableDiagnostics {
		return d
	}
	for _, info := range e.plugins.List() {
		d.Plugins = append(d.Plugins, PluginDiagnostic{
			Name:     info.Name,
			Priority: info.Priority,
			State:    info.State.String(),
			Faults:   info.Faults,
		})
	}
	return d
}

// Health is a coarse, cheap-to-compute summary suitable for a liveness
// probe: OK is false only when the engine is in the error-recovery
// fallback mode or a consistency fault has been observed.
type Health struct {
	OK         bool
	InFallback bool
	StoreSize  int
}

// Health reports whether the engine is in a degraded state.
func (e *Engine) Health() Health {
	fallback := e.recov.InFallback()
	faults := e.primary.ConsistencyFaults()
	return Health{
		OK:         !fallback && faults == 0,
		InFallback: fallback,
		StoreSize:  e.primary.Size(),
	}
}

// Compact repairs any store-level consistency faults, returning the
// number of entries repaired.
func (e *Engine) Compact() int {
	return e.primary.Compact()
}

// Optimize runs routine maintenance: flushing the tiered fingerprint
// cache and reporting the result via Metrics. It does not touch the
// store, the plugin pipeline, or the recovery controller's fallback
// state — use Compact for store repair and LeaveFallback for fallback.
func (e *Engine) Optimize() Metrics {
	if e.cache != nil {
		e.cache.Clear()
	}
	return e.Metrics()
}

// Reset clears the store and cache and zeroes operation counters, but
// leaves registered plugins and the recovery controller's policies
// untouched — only LeaveFallback resets the fallback latch explicitly.
func (e *Engine) Reset() {
	e.primary.Clear()
	if e.cache != nil {
		e.cache.Clear()
	}
	e.puts.Store(0)
	e.gets.Store(0)
	e.removes.Store(0)
	e.clears.Store(0)
	e.putNanos.Store(0)
	e.getNanos.Store(0)
}

// Package canonstore is a content-addressed associative container: values
// are indexed by the canonical fingerprint of a logical key rather than by
// key identity, so structurally equal keys always resolve to the same
// entry. Engine is the façade binding the adaptive serializer, tiered
// fingerprint cache, error-recovery controller, plugin pipeline, and
// primary store into a single orchestrator.
//
// The wiring is a constructor and a handful of methods rather than a
// long-running daemon.
package canonstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/allaspectsdev/canonstore/internal/key"
	"github.com/allaspectsdev/canonstore/internal/plugin"
	"github.com/allaspectsdev/canonstore/internal/recovery"
	"github.com/allaspectsdev/canonstore/internal/serialize"
	"github.com/allaspectsdev/canonstore/internal/store"
	"github.com/allaspectsdev/canonstore/internal/telemetry"
	"github.com/allaspectsdev/canonstore/internal/tiercache"
)

// Options configures a new Engine. A zero Options is usable: every
// subsystem falls back to its package defaults.
type Options struct {
	// EnableTieredCache turns on the fingerprint cache in front of the
	// serializer (tiered L1/L2 by default, or flat if FlatCache is set).
	// Enabled by default.
	EnableTieredCache bool
	// DisableTieredCache turns the cache off unless EnableTieredCache is
	// also set; Options uses this pair so the zero Options still means
	// "cache on" by default.
	DisableTieredCache bool

	CacheL1Size          int
	CacheL2Size          int
	CachePromoteThresh   int
	SerializerMaxDepth   int
	DistinctOpaqueSymbol bool

	// FlatCache selects a single-size cache instead of the tiered L1/L2
	// cache, sized by FlatCacheMaxSize. Every entry is promoted to the hot
	// tier on its first re-hit rather than after repeated L2 hits.
	FlatCache        bool
	FlatCacheMaxSize int

	// DisableAdaptiveSerialization skips priority-ordered strategy dispatch
	// and always serializes through the fast-hash strategy.
	DisableAdaptiveSerialization bool

	// DisablePlugins skips running before_*/after_* hooks around every
	// operation; plugins can still be registered and listed, but take no
	// effect until this is false.
	DisablePlugins bool
	// PluginTimeout overrides the registry's lifecycle call timeout
	// (install/enable/disable/uninstall). Zero keeps plugin.DefaultLifecycleTimeout.
	PluginTimeout time.Duration

	// DisableDiagnostics trims Diagnostics to its embedded Metrics plus
	// InFallback, omitting the per-plugin detail slice.
	DisableDiagnostics bool
	// TrackPerformance accumulates per-operation latency, surfaced through
	// Metrics' AvgPutLatencyMicros/AvgGetLatencyMicros.
	TrackPerformance bool

	// AutoCleanupInterval, if positive, runs Compact on a ticker for the
	// life of the Engine. Stop it with Close.
	AutoCleanupInterval time.Duration

	// FallbackMode selects how the recovery controller's fallback latch
	// behaves once tripped: "" or "manual" (default) requires an explicit
	// LeaveFallback call; "auto" clears the latch on its own after
	// FallbackAutoResetInterval (recovery.DefaultAutoResetInterval if
	// zero); "disabled" keeps the controller from latching into fallback
	// at all, regardless of per-kind policy.
	FallbackMode              string
	FallbackAutoResetInterval time.Duration

	// RecoveryPolicies overrides the error-recovery controller's per-kind
	// policies; nil uses recovery.DefaultPolicies().
	RecoveryPolicies map[recovery.Kind]recovery.Policy
}

// Engine is a content-addressed key/value container. All exported methods
// are safe for concurrent use.
type Engine struct {
	ser      *serialize.Serializer
	cache    *tiercache.Cache
	primary  *store.Primary
	recov    *recovery.Controller
	plugins  *plugin.Registry
	optsCopy Options

	puts, gets, removes, clears, errorsTotal atomic.Uint64
	putNanos, getNanos                       atomic.Uint64

	cleanupStop chan struct{}
	closeOnce   sync.Once
}

// New builds an Engine with every subsystem wired together: the serializer
// caches through the tiered cache, the plugin pipeline reports faults to
// the recovery controller, and the recovery controller's fallback latch is
// reported through Health and Diagnostics. Put/Get/Remove do not consult
// the latch: they take the same path whether or not it is set.
func New(opts Options) *Engine {
	useCache := opts.EnableTieredCache || !opts.DisableTieredCache

	recov := recovery.New(recoveryPoliciesFor(opts))
	if opts.FallbackMode == "auto" {
		reset := opts.FallbackAutoResetInterval
		if reset <= 0 {
			reset = recovery.DefaultAutoResetInterval
		}
		recov.SetAutoReset(reset)
	}

	var cache *tiercache.Cache
	if useCache {
		if opts.FlatCache {
			size := opts.FlatCacheMaxSize
			cache = tiercache.New(tiercache.Options{L1Size: size, L2Size: size, PromoteThreshold: 1})
		} else {
			cache = tiercache.New(tiercache.Options{
				L1Size:           opts.CacheL1Size,
				L2Size:           opts.CacheL2Size,
				PromoteThreshold: opts.CachePromoteThresh,
			})
		}
	}

	e := &Engine{
		primary: store.New(),
		cache:   cache,
		recov:   recov,
	}

	e.ser = serialize.New(serialize.Options{
		MaxDepth:              opts.SerializerMaxDepth,
		DistinctOpaqueSymbols: opts.DistinctOpaqueSymbol,
		DisableAdaptive:       opts.DisableAdaptiveSerialization,
		Cache:                 cache,
		OnFallback: func() {
			e.recov.Decide("serialize", recovery.KindSerialization)
		},
	})

	e.plugins = plugin.NewRegistry(recoveryAdapter{recov})
	if opts.PluginTimeout > 0 {
		e.plugins.SetLifecycleTimeout(opts.PluginTimeout)
	}
	e.optsCopy = opts

	if opts.AutoCleanupInterval > 0 {
		e.cleanupStop = make(chan struct{})
		go e.runAutoCleanup(opts.AutoCleanupInterval)
	}

	log.Info().Bool("tiered_cache", useCache).Msg("engine initialized")
	return e
}

// recoveryPoliciesFor adapts opts.RecoveryPolicies for opts.FallbackMode:
// "disabled" strips FallbackEnabled from every policy so the controller
// never latches, regardless of what the caller otherwise configured.
func recoveryPoliciesFor(opts Options) map[recovery.Kind]recovery.Policy {
	if opts.FallbackMode != "disabled" {
		return opts.RecoveryPolicies
	}
	policies := opts.RecoveryPolicies
	if policies == nil {
		policies = recovery.DefaultPolicies()
	}
	out := make(map[recovery.Kind]recovery.Policy, len(policies))
	for k, p := range policies {
		p.FallbackEnabled = false
		out[k] = p
	}
	return out
}

// runAutoCleanup calls Compact on a ticker until Close stops it, repairing
// any store-level consistency faults that accumulated since the last pass.
func (e *Engine) runAutoCleanup(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			if n := e.Compact(); n > 0 {
				log.Info().Int("repaired", n).Msg("auto-cleanup: compacted store")
			}
		case <-e.cleanupStop:
			return
		}
	}
}

// Close stops the auto-cleanup goroutine, if AutoCleanupInterval enabled
// one. It is safe to call on an Engine that never started one, and safe to
// call more than once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		if e.cleanupStop != nil {
			close(e.cleanupStop)
		}
	})
}

// recoveryAdapter satisfies plugin.PluginFaultReporter without the plugin
// package importing internal/recovery directly.
type recoveryAdapter struct {
	c *recovery.Controller
}

// ShouldDisable reports a faulting plugin as not-retryable as soon as the
// controller's KindPlugin policy (MaxRetries=0, FallbackEnabled=false by
// default) says so — a hook fault is never retried within the same call,
// so the first Decide verdict that isn't DecisionRetry means "disable".
func (a recoveryAdapter) ShouldDisable(opName string) bool {
	switch a.c.Decide(opName, recovery.KindPlugin) {
	case recovery.DecisionRetry:
		return false
	default:
		return true
	}
}

// Plugins exposes the plugin pipeline for registration/inspection.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// LeaveFallback clears the error-recovery controller's fallback latch,
// exposed on Engine so operators and tests can force recovery without
// discarding the engine.
func (e *Engine) LeaveFallback() { e.recov.LeaveFallback() }

// Fingerprint computes the canonical fingerprint string for k without
// storing anything, useful for cache-key prediction and diagnostics.
func (e *Engine) Fingerprint(k key.Key) string {
	return e.ser.Serialize(k)
}

// Put stores v under the fingerprint of k, running the before_put/after_put
// plugin hooks around the mutation. If a before_put hook rewrites k to
// key.Undefined() (the pipeline's veto convention, used by e.g. a rate
// limiter), the put is skipped and Put returns (false, nil).
func (e *Engine) Put(ctx context.Context, k key.Key, v any) (bool, error) {
	ctx, span := telemetry.StartOpSpan(ctx, "put")
	defer span.End()
	start := time.Now()

	if !e.optsCopy.DisablePlugins {
		k, v = e.plugins.RunBeforePut(ctx, k, v)
		if k.Tag == key.TagUndefined {
			telemetry.SetOutcome(ctx, "vetoed")
			return false, nil
		}
	}

	fp := e.ser.Serialize(k)
	telemetry.SetFingerprint(ctx, fp)
	fresh := e.primary.Put(fp, k, v)
	e.puts.Add(1)
	if e.optsCopy.TrackPerformance {
		e.putNanos.Add(uint64(time.Since(start)))
	}

	if !e.optsCopy.DisablePlugins {
		e.plugins.RunAfterPut(ctx, k, v)
	}
	return fresh, nil
}

// Get retrieves the value stored under the fingerprint of k. A before_get
// veto (key rewritten to key.Undefined()) behaves as a miss.
func (e *Engine) Get(ctx context.Context, k key.Key) (any, bool, error) {
	ctx, span := telemetry.StartOpSpan(ctx, "get")
	defer span.End()
	start := time.Now()

	if !e.optsCopy.DisablePlugins {
		k = e.plugins.RunBeforeGet(ctx, k)
		if k.Tag == key.TagUndefined {
			telemetry.SetOutcome(ctx, "vetoed")
			return nil, false, nil
		}
	}

	fp := e.ser.Serialize(k)
	telemetry.SetFingerprint(ctx, fp)
	v, found := e.primary.Get(fp)
	e.gets.Add(1)
	if e.optsCopy.TrackPerformance {
		e.getNanos.Add(uint64(time.Since(start)))
	}
	if found {
		telemetry.SetOutcome(ctx, "hit")
	} else {
		telemetry.SetOutcome(ctx, "miss")
	}

	if !e.optsCopy.DisablePlugins {
		v = e.plugins.RunAfterGet(ctx, k, v, found)
	}
	return v, found, nil
}

// Has reports whether k has a stored value. It is a pure predicate: it
// runs neither the get hooks nor counts toward get metrics.
func (e *Engine) Has(k key.Key) bool {
	return e.primary.Has(e.ser.Serialize(k))
}

// Remove deletes the entry for k, running before_remove/after_remove hooks.
func (e *Engine) Remove(ctx context.Context, k key.Key) (bool, error) {
	ctx, span := telemetry.StartOpSpan(ctx, "remove")
	defer span.End()

	if !e.optsCopy.DisablePlugins {
		k = e.plugins.RunBeforeRemove(ctx, k)
		if k.Tag == key.TagUndefined {
			telemetry.SetOutcome(ctx, "vetoed")
			return false, nil
		}
	}

	fp := e.ser.Serialize(k)
	telemetry.SetFingerprint(ctx, fp)
	removed := e.primary.Remove(fp)
	e.removes.Add(1)

	if !e.optsCopy.DisablePlugins {
		e.plugins.RunAfterRemove(ctx, k, removed)
	}
	return removed, nil
}

// Clear empties the store. A before_clear veto from any plugin aborts the
// operation entirely.
func (e *Engine) Clear(ctx context.Context) error {
	if !e.optsCopy.DisablePlugins && !e.plugins.RunBeforeClear(ctx) {
		return fmt.Errorf("canonstore: clear vetoed by plugin")
	}
	e.primary.Clear()
	if e.cache != nil {
		e.cache.Clear()
	}
	e.clears.Add(1)
	if !e.optsCopy.DisablePlugins {
		e.plugins.RunAfterClear(ctx)
	}
	return nil
}

// GetByFingerprint retrieves an entry directly by its fingerprint, for
// callers (internal/httpapi's GET /entries/{fingerprint}) that obtained
// the fingerprint from a prior response rather than holding the original
// key. It bypasses the before_get/after_get plugin hooks, since there is
// no key to offer them for rewriting.
func (e *Engine) GetByFingerprint(fingerprint string) (key.Key, any, bool) {
	return e.primary.Lookup(fingerprint)
}

// RemoveByFingerprint deletes an entry directly by its fingerprint,
// mirroring GetByFingerprint. It bypasses the before_remove/after_remove
// plugin hooks for the same reason.
func (e *Engine) RemoveByFingerprint(fingerprint string) bool {
	removed := e.primary.Remove(fingerprint)
	if removed {
		e.removes.Add(1)
	}
	return removed
}

// Iterate walks every stored entry in first-insertion order, stopping early
// if fn returns false.
func (e *Engine) Iterate(fn func(k key.Key, v any) bool) {
	e.primary.Iterate(func(ent store.Entry) bool {
		return fn(ent.Key, ent.Value)
	})
}

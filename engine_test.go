package canonstore

import (
	"context"
	"testing"
	"time"

	"github.com/allaspectsdev/canonstore/internal/key"
	"github.com/allaspectsdev/canonstore/internal/recovery"
)

func TestPutGetRoundTrip(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()

	fresh, err := e.Put(ctx, key.NewString("hello"), 42)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !fresh {
		t.Error("Put: want fresh=true for new key")
	}

	v, found, err := e.Get(ctx, key.NewString("hello"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || v != 42 {
		t.Fatalf("Get: got (%v, %v), want (42, true)", v, found)
	}
}

func TestStructurallyEqualKeysCollide(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()

	k1 := key.NewRecord(map[string]key.Key{"a": key.NewInt(1), "b": key.NewInt(2)})
	k2 := key.NewRecord(map[string]key.Key{"b": key.NewInt(2), "a": key.NewInt(1)})

	if _, err := e.Put(ctx, k1, "v1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, found, err := e.Get(ctx, k2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || v != "v1" {
		t.Fatalf("structurally equal record keys didn't collide: got (%v, %v)", v, found)
	}
}

func TestRemoveAndHas(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	k := key.NewInt(7)

	e.Put(ctx, k, "x")
	if !e.Has(k) {
		t.Fatal("Has: want true before remove")
	}
	removed, err := e.Remove(ctx, k)
	if err != nil || !removed {
		t.Fatalf("Remove: got (%v, %v), want (true, nil)", removed, err)
	}
	if e.Has(k) {
		t.Fatal("Has: want false after remove")
	}
}

func TestClearEmptiesStore(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	e.Put(ctx, key.NewInt(1), "a")
	e.Put(ctx, key.NewInt(2), "b")

	if err := e.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if e.Metrics().StoreSize != 0 {
		t.Fatalf("StoreSize after Clear: got %d, want 0", e.Metrics().StoreSize)
	}
}

type vetoClearPlugin struct{}

func (vetoClearPlugin) Name() string { return "veto-clear" }
func (vetoClearPlugin) BeforeClear(ctx context.Context) (bool, error) {
	return false, nil
}

func TestBeforeClearVeto(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	e.Put(ctx, key.NewInt(1), "a")

	if err := e.Plugins().Register(ctx, vetoClearPlugin{}, 0, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := e.Clear(ctx); err == nil {
		t.Fatal("Clear: want error from veto, got nil")
	}
	if e.Metrics().StoreSize != 1 {
		t.Fatalf("StoreSize after vetoed Clear: got %d, want 1", e.Metrics().StoreSize)
	}
}

func TestIterateAndQuery(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	e.Put(ctx, key.NewInt(1), 10)
	e.Put(ctx, key.NewInt(2), 20)
	e.Put(ctx, key.NewInt(3), 30)

	found := e.FindByValue(func(v any) bool { return v.(int) > 15 })
	if len(found) != 2 {
		t.Fatalf("FindByValue: got %d matches, want 2", len(found))
	}

	mapped := e.MapValues(ctx, func(k key.Key, v any) any { return v.(int) * 2 })
	if mapped.Metrics().StoreSize != 3 {
		t.Fatalf("MapValues: got store size %d, want 3", mapped.Metrics().StoreSize)
	}
	if v, found, _ := mapped.Get(ctx, key.NewInt(2)); !found || v.(int) != 40 {
		t.Fatalf("MapValues: got (%v, %v) for key 2, want (40, true)", v, found)
	}
}

func TestOptimizeFlushesCacheWithoutTouchingStore(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()

	k := key.NewRecord(map[string]key.Key{"a": key.NewInt(1), "b": key.NewInt(2)})
	if _, err := e.Put(ctx, k, "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := e.Get(ctx, k); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}

	before := e.Metrics()
	if before.CacheL1Hits == 0 && before.CacheL2Hits == 0 {
		t.Fatal("expected repeated Get calls on the same container key to populate the cache")
	}
	if before.StoreSize != 1 {
		t.Fatalf("StoreSize before Optimize: got %d, want 1", before.StoreSize)
	}

	after := e.Optimize()
	if after.CacheL1Hits != 0 || after.CacheL2Hits != 0 {
		t.Fatalf("cache stats after Optimize = (L1Hits=%d, L2Hits=%d), want (0, 0)",
			after.CacheL1Hits, after.CacheL2Hits)
	}
	if after.StoreSize != 1 {
		t.Fatalf("StoreSize after Optimize: got %d, want 1 (store should be untouched)", after.StoreSize)
	}
	if v, found, err := e.Get(ctx, k); err != nil || !found || v != "v" {
		t.Fatalf("Get after Optimize: got (%v, %v, %v), want (v, true, nil)", v, found, err)
	}
}

func TestHealthReflectsFallback(t *testing.T) {
	e := New(Options{})
	if !e.Health().OK {
		t.Fatal("Health: want OK=true for fresh engine")
	}

	// KindUnknown's default EscalationThreshold is 5; the fifth Decide call
	// trips the latch.
	for i := 0; i < 5; i++ {
		e.recov.Decide("test-op", recovery.KindUnknown)
	}
	if !e.Health().InFallback {
		t.Fatal("Health: want InFallback=true after tripping the latch")
	}
	if e.Health().OK {
		t.Fatal("Health: want OK=false while in fallback")
	}

	e.LeaveFallback()
	if !e.Health().OK {
		t.Fatal("Health: want OK=true after LeaveFallback")
	}
}

func TestDisablePluginsSkipsHooks(t *testing.T) {
	e := New(Options{DisablePlugins: true})
	ctx := context.Background()

	if err := e.Plugins().Register(ctx, vetoClearPlugin{}, 0, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	e.Put(ctx, key.NewInt(1), "a")

	if err := e.Clear(ctx); err != nil {
		t.Fatalf("Clear: want no veto with DisablePlugins set, got %v", err)
	}
	if e.Metrics().StoreSize != 0 {
		t.Fatalf("StoreSize after Clear: got %d, want 0", e.Metrics().StoreSize)
	}
}

func TestFlatCacheStillCachesContainerFingerprints(t *testing.T) {
	e := New(Options{FlatCache: true, FlatCacheMaxSize: 16})
	ctx := context.Background()
	k := key.NewRecord(map[string]key.Key{"a": key.NewInt(1)})

	e.Put(ctx, k, "v")
	e.Get(ctx, k)
	e.Get(ctx, k)

	m := e.Metrics()
	if !m.CacheEnabled {
		t.Fatal("expected FlatCache to still report CacheEnabled=true")
	}
	if m.CacheL1Hits == 0 && m.CacheL2Hits == 0 {
		t.Fatal("expected repeated Get calls to register as cache hits under FlatCache")
	}
}

func TestTrackPerformanceReportsNonZeroAverageLatency(t *testing.T) {
	e := New(Options{TrackPerformance: true})
	ctx := context.Background()

	e.Put(ctx, key.NewInt(1), "a")
	e.Get(ctx, key.NewInt(1))

	m := e.Metrics()
	if m.AvgPutLatencyMicros <= 0 {
		t.Errorf("AvgPutLatencyMicros = %v, want > 0 with TrackPerformance set", m.AvgPutLatencyMicros)
	}
	if m.AvgGetLatencyMicros <= 0 {
		t.Errorf("AvgGetLatencyMicros = %v, want > 0 with TrackPerformance set", m.AvgGetLatencyMicros)
	}
}

func TestTrackPerformanceOffLeavesLatencyZero(t *testing.T) {
	e := New(Options{})
	ctx := context.Background()
	e.Put(ctx, key.NewInt(1), "a")

	m := e.Metrics()
	if m.AvgPutLatencyMicros != 0 {
		t.Errorf("AvgPutLatencyMicros = %v, want 0 without TrackPerformance", m.AvgPutLatencyMicros)
	}
}

func TestDisableDiagnosticsOmitsPluginDetail(t *testing.T) {
	e := New(Options{DisableDiagnostics: true})
	ctx := context.Background()
	if err := e.Plugins().Register(ctx, vetoClearPlugin{}, 0, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	d := e.Diagnostics()
	if d.Plugins != nil {
		t.Fatalf("Plugins: got %v, want nil with DisableDiagnostics set", d.Plugins)
	}
}

func TestFallbackModeDisabledNeverLatches(t *testing.T) {
	e := New(Options{FallbackMode: "disabled"})
	for i := 0; i < 10; i++ {
		e.recov.Decide("test-op", recovery.KindUnknown)
	}
	if e.Health().InFallback {
		t.Fatal("FallbackMode disabled should never trip the latch")
	}
}

func TestFallbackModeAutoClearsLatchOnItsOwn(t *testing.T) {
	e := New(Options{FallbackMode: "auto", FallbackAutoResetInterval: 5 * time.Millisecond})
	for i := 0; i < 5; i++ {
		e.recov.Decide("test-op", recovery.KindUnknown)
	}
	if !e.Health().InFallback {
		t.Fatal("expected the latch to trip before auto-reset elapses")
	}

	time.Sleep(10 * time.Millisecond)
	if e.Health().InFallback {
		t.Fatal("expected FallbackMode auto to clear the latch without an explicit LeaveFallback call")
	}
}

func TestAutoCleanupCompactsOnASchedule(t *testing.T) {
	e := New(Options{AutoCleanupInterval: 5 * time.Millisecond})
	defer e.Close()

	time.Sleep(20 * time.Millisecond)
	// Nothing to repair on a fresh engine; this just exercises the ticker
	// goroutine and Close's shutdown path without panicking or racing.
}

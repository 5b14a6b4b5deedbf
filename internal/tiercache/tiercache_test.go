package tiercache

import "testing"

func TestPutThenGetMisses(t *testing.T) {
	c := New(Options{})
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get on empty cache should miss")
	}
	if c.Stats().Misses != 1 {
		t.Fatalf("Misses = %d, want 1", c.Stats().Misses)
	}
}

func TestPutIsL2OnlyUntilPromoted(t *testing.T) {
	c := New(Options{PromoteThreshold: 3})
	c.Put("k", "v")

	if c.Stats().L2Size != 1 {
		t.Fatalf("L2Size = %d, want 1", c.Stats().L2Size)
	}
	if c.Stats().L1Size != 0 {
		t.Fatalf("L1Size = %d, want 0 before any L2 hit", c.Stats().L1Size)
	}
}

func TestPromotionAfterThresholdHits(t *testing.T) {
	c := New(Options{PromoteThreshold: 3})
	c.Put("k", "v")

	for i := 0; i < 2; i++ {
		if _, ok := c.Get("k"); !ok {
			t.Fatalf("Get(%d): want hit", i)
		}
	}
	if c.Stats().L1Size != 0 {
		t.Fatal("should not promote before reaching the threshold")
	}

	if _, ok := c.Get("k"); !ok {
		t.Fatal("third Get: want hit")
	}
	if c.Stats().L1Size != 1 {
		t.Fatalf("L1Size after threshold hits = %d, want 1", c.Stats().L1Size)
	}
	if c.Stats().Promotions != 1 {
		t.Fatalf("Promotions = %d, want 1", c.Stats().Promotions)
	}
}

func TestRemoveSweepsBothTiers(t *testing.T) {
	c := New(Options{PromoteThreshold: 1})
	c.Put("k", "v")
	c.Get("k") // promotes to L1 given threshold 1

	c.Remove("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("Get after Remove should miss")
	}
}

func TestClearResetsSizesAndCounters(t *testing.T) {
	c := New(Options{})
	c.Put("k", "v")
	c.Get("k")
	c.Get("missing")

	c.Clear()
	stats := c.Stats()
	if stats.L1Size != 0 || stats.L2Size != 0 {
		t.Fatalf("sizes after Clear = (%d, %d), want (0, 0)", stats.L1Size, stats.L2Size)
	}
	if stats.Misses != 0 || stats.L2Hits != 0 {
		t.Errorf("counters after Clear = (Misses=%d, L2Hits=%d), want (0, 0)", stats.Misses, stats.L2Hits)
	}
}

func TestDefaultsAppliedOnZeroOptions(t *testing.T) {
	c := New(Options{})
	if c.l1.Len() != 0 || c.promoteThreshold != DefaultPromoteThreshold {
		t.Fatalf("promoteThreshold = %d, want default %d", c.promoteThreshold, DefaultPromoteThreshold)
	}
}

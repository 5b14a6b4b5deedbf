package store

import (
	"testing"

	"github.com/allaspectsdev/canonstore/internal/key"
)

func TestPutFreshVsOverwrite(t *testing.T) {
	p := New()

	fresh := p.Put("fp1", key.NewString("a"), 1)
	if !fresh {
		t.Fatalf("first Put: got fresh=false, want true")
	}

	fresh = p.Put("fp1", key.NewString("b"), 2)
	if fresh {
		t.Fatalf("second Put: got fresh=true, want false")
	}

	v, ok := p.Get("fp1")
	if !ok || v != 2 {
		t.Fatalf("Get after overwrite: got (%v, %v), want (2, true)", v, ok)
	}
}

func TestFirstObservedKeyWins(t *testing.T) {
	p := New()

	k1 := key.NewString("first")
	k2 := key.NewString("second")

	p.Put("fp1", k1, "v1")
	p.Put("fp1", k2, "v2")

	var got key.Key
	p.Iterate(func(e Entry) bool {
		got = e.Key
		return true
	})

	if got.Str != "first" {
		t.Errorf("original key: got %q, want %q (first-observed-wins)", got.Str, "first")
	}
}

func TestRemoveAndHas(t *testing.T) {
	p := New()
	p.Put("fp1", key.NewInt(1), "v")

	if !p.Has("fp1") {
		t.Fatal("Has: want true before remove")
	}
	if !p.Remove("fp1") {
		t.Fatal("Remove: want true, entry existed")
	}
	if p.Has("fp1") {
		t.Fatal("Has: want false after remove")
	}
	if p.Remove("fp1") {
		t.Fatal("Remove: want false, entry already gone")
	}
}

func TestSizeAndClear(t *testing.T) {
	p := New()
	p.Put("fp1", key.NewInt(1), "a")
	p.Put("fp2", key.NewInt(2), "b")

	if got := p.Size(); got != 2 {
		t.Fatalf("Size: got %d, want 2", got)
	}

	p.Clear()
	if got := p.Size(); got != 0 {
		t.Fatalf("Size after Clear: got %d, want 0", got)
	}
}

func TestIterateInsertionOrder(t *testing.T) {
	p := New()
	p.Put("fp3", key.NewInt(3), "c")
	p.Put("fp1", key.NewInt(1), "a")
	p.Put("fp2", key.NewInt(2), "b")

	var order []string
	p.Iterate(func(e Entry) bool {
		order = append(order, e.Value.(string))
		return true
	})

	want := []string{"c", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("order length: got %d, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d]: got %q, want %q", i, order[i], want[i])
		}
	}
}

func TestIterateEarlyStop(t *testing.T) {
	p := New()
	p.Put("fp1", key.NewInt(1), "a")
	p.Put("fp2", key.NewInt(2), "b")
	p.Put("fp3", key.NewInt(3), "c")

	count := 0
	p.Iterate(func(e Entry) bool {
		count++
		return count < 2
	})

	if count != 2 {
		t.Fatalf("early stop: got %d callbacks, want 2", count)
	}
}

func TestCompactRemovesOrphanedValues(t *testing.T) {
	p := New()
	p.Put("fp1", key.NewInt(1), "a")

	// Simulate an alignment violation directly, since Put/Remove never
	// produce one on their own.
	p.mu.Lock()
	p.values["orphan"] = "dangling"
	p.mu.Unlock()

	removed := p.Compact()
	if removed != 1 {
		t.Fatalf("Compact: got %d removed, want 1", removed)
	}
	if p.Has("orphan") {
		t.Fatal("Compact: orphaned fingerprint still present")
	}
	if !p.Has("fp1") {
		t.Fatal("Compact: consistent fingerprint was wrongly removed")
	}
	if got := p.ConsistencyFaults(); got != 1 {
		t.Fatalf("ConsistencyFaults: got %d, want 1", got)
	}
}

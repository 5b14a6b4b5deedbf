package ratelimit

import (
	"context"
	"testing"

	"github.com/allaspectsdev/canonstore/internal/key"
)

func TestBeforePutAllowsWithinBurst(t *testing.T) {
	p := New(1, 3)
	ctx := WithCaller(context.Background(), "alice")

	for i := 0; i < 3; i++ {
		k, _, err := p.BeforePut(ctx, key.NewInt(int64(i)), "v")
		if err != nil {
			t.Fatalf("BeforePut(%d): %v", i, err)
		}
		if k.Tag == key.TagUndefined {
			t.Fatalf("BeforePut(%d): unexpectedly vetoed within burst", i)
		}
	}
}

func TestBeforePutVetoesOverBurstWithoutError(t *testing.T) {
	p := New(0.001, 1)
	ctx := WithCaller(context.Background(), "bob")

	k1, _, err := p.BeforePut(ctx, key.NewInt(1), "v")
	if err != nil || k1.Tag == key.TagUndefined {
		t.Fatalf("first put: got (%v, %v), want allowed", k1, err)
	}

	k2, _, err := p.BeforePut(ctx, key.NewInt(2), "v")
	if err != nil {
		t.Fatalf("a rate-limit veto must never surface as a hook error, got %v", err)
	}
	if k2.Tag != key.TagUndefined {
		t.Fatal("second put past the burst should be vetoed (rewritten to Undefined)")
	}
	if p.Vetoed() != 1 {
		t.Fatalf("Vetoed() = %d, want 1", p.Vetoed())
	}
}

func TestPerCallerBucketsAreIndependent(t *testing.T) {
	p := New(0.001, 1)
	aliceCtx := WithCaller(context.Background(), "alice")
	bobCtx := WithCaller(context.Background(), "bob")

	p.BeforePut(aliceCtx, key.NewInt(1), "v")
	k, _, _ := p.BeforePut(aliceCtx, key.NewInt(2), "v")
	if k.Tag != key.TagUndefined {
		t.Fatal("alice's second put should be vetoed")
	}

	k, _, _ = p.BeforePut(bobCtx, key.NewInt(1), "v")
	if k.Tag == key.TagUndefined {
		t.Fatal("bob's bucket should be independent of alice's")
	}
}

func TestSetLimitOverridesDefault(t *testing.T) {
	p := New(0.001, 1)
	p.SetLimit("vip", 100, 100)
	ctx := WithCaller(context.Background(), "vip")

	for i := 0; i < 10; i++ {
		k, _, _ := p.BeforePut(ctx, key.NewInt(int64(i)), "v")
		if k.Tag == key.TagUndefined {
			t.Fatalf("vip put %d: should not be vetoed after SetLimit raised its burst", i)
		}
	}
}

func TestAnonymousCallerFallback(t *testing.T) {
	p := New(10, 10)
	k, err := p.BeforeGet(context.Background(), key.NewInt(1))
	if err != nil || k.Tag == key.TagUndefined {
		t.Fatalf("BeforeGet with no caller in context: got (%v, %v)", k, err)
	}
}

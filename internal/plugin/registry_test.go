package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/allaspectsdev/canonstore/internal/key"
)

type recorderPlugin struct {
	name   string
	before func(key.Key, any) (key.Key, any, error)
	calls  *[]string
}

func (p *recorderPlugin) Name() string { return p.name }

func (p *recorderPlugin) BeforePut(ctx context.Context, k key.Key, v any) (key.Key, any, error) {
	*p.calls = append(*p.calls, p.name)
	if p.before != nil {
		return p.before(k, v)
	}
	return k, v, nil
}

type alwaysDisable struct{}

func (alwaysDisable) ShouldDisable(string) bool { return true }

type neverDisable struct{}

func (neverDisable) ShouldDisable(string) bool { return false }

func TestRegisterRunsInstallAndEnable(t *testing.T) {
	r := NewRegistry(neverDisable{})
	ctx := context.Background()
	p := &recorderPlugin{name: "p1", calls: &[]string{}}

	if err := r.Register(ctx, p, 0, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}

	list := r.List()
	if len(list) != 1 || list[0].State != StateEnabled {
		t.Fatalf("List() = %+v, want one enabled plugin", list)
	}
}

func TestPriorityOrdering(t *testing.T) {
	r := NewRegistry(neverDisable{})
	ctx := context.Background()
	var calls []string

	low := &recorderPlugin{name: "low", calls: &calls}
	high := &recorderPlugin{name: "high", calls: &calls}

	r.Register(ctx, low, 1, nil)
	r.Register(ctx, high, 10, nil)

	r.RunBeforePut(ctx, key.NewInt(1), "v")

	if len(calls) != 2 || calls[0] != "high" || calls[1] != "low" {
		t.Fatalf("call order = %v, want [high low]", calls)
	}
}

func TestBeforePutRewriteThreadsThrough(t *testing.T) {
	r := NewRegistry(neverDisable{})
	ctx := context.Background()
	var calls []string

	rewriter := &recorderPlugin{
		name:  "rewriter",
		calls: &calls,
		before: func(k key.Key, v any) (key.Key, any, error) {
			return key.NewInt(999), v, nil
		},
	}
	r.Register(ctx, rewriter, 0, nil)

	k, _ := r.RunBeforePut(ctx, key.NewInt(1), "v")
	if k.Int != 999 {
		t.Fatalf("rewritten key = %d, want 999", k.Int)
	}
}

func TestFaultyHookIsolatedAndDisabled(t *testing.T) {
	r := NewRegistry(alwaysDisable{})
	ctx := context.Background()
	var calls []string

	faulty := &recorderPlugin{
		name:  "faulty",
		calls: &calls,
		before: func(k key.Key, v any) (key.Key, any, error) {
			return k, v, errors.New("boom")
		},
	}
	r.Register(ctx, faulty, 0, nil)

	r.RunBeforePut(ctx, key.NewInt(1), "v")

	list := r.List()
	if len(list) != 1 || list[0].State != StateDisabled {
		t.Fatalf("plugin state after fault = %+v, want Disabled", list)
	}
	if list[0].Faults != 1 {
		t.Fatalf("Faults = %d, want 1", list[0].Faults)
	}
}

type vetoClear struct{}

func (vetoClear) Name() string { return "veto" }
func (vetoClear) BeforeClear(ctx context.Context) (bool, error) {
	return false, nil
}

func TestBeforeClearVetoStopsAtFirstFalse(t *testing.T) {
	r := NewRegistry(neverDisable{})
	ctx := context.Background()
	r.Register(ctx, vetoClear{}, 0, nil)

	if r.RunBeforeClear(ctx) {
		t.Fatal("RunBeforeClear should report false when a plugin vetoes")
	}
}

func TestUnregisterRemovesPlugin(t *testing.T) {
	r := NewRegistry(neverDisable{})
	ctx := context.Background()
	p := &recorderPlugin{name: "p1", calls: &[]string{}}
	r.Register(ctx, p, 0, nil)

	if err := r.Unregister(ctx, "p1"); err != nil {
		t.Fatalf("Unregister: %v", err)
	}
	if len(r.List()) != 0 {
		t.Fatalf("List() after Unregister = %+v, want empty", r.List())
	}
}

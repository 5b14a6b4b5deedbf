package plugin

import (
	"context"
	"fmt"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// runHook wraps a single hook invocation with panic recovery so a
// misbehaving plugin never escapes the pipeline, converting a panic into
// an error attributed to that plugin.
func runHook(hookName string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", hookName, r)
		}
	}()
	return fn()
}

// RunBeforePut threads (k, v) through every enabled plugin's BeforePut
// hook in priority order, isolating faults and returning the
// (possibly rewritten) pair.
func (r *Registry) RunBeforePut(ctx context.Context, k key.Key, v any) (key.Key, any) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(BeforePutHook)
		if !ok {
			continue
		}
		var nk key.Key
		var nv any
		err := runHook("before_put", func() error {
			var herr error
			nk, nv, herr = hook.BeforePut(ctx, k, v)
			return herr
		})
		if err != nil {
			r.recordFault(ctx, reg, "before_put", err)
			continue
		}
		k, v = nk, nv
	}
	return k, v
}

// RunAfterPut notifies every enabled plugin's AfterPut hook in priority
// order.
func (r *Registry) RunAfterPut(ctx context.Context, k key.Key, v any) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(AfterPutHook)
		if !ok {
			continue
		}
		if err := runHook("after_put", func() error { return hook.AfterPut(ctx, k, v) }); err != nil {
			r.recordFault(ctx, reg, "after_put", err)
		}
	}
}

// RunBeforeGet threads k through every enabled plugin's BeforeGet hook.
func (r *Registry) RunBeforeGet(ctx context.Context, k key.Key) key.Key {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(BeforeGetHook)
		if !ok {
			continue
		}
		var nk key.Key
		err := runHook("before_get", func() error {
			var herr error
			nk, herr = hook.BeforeGet(ctx, k)
			return herr
		})
		if err != nil {
			r.recordFault(ctx, reg, "before_get", err)
			continue
		}
		k = nk
	}
	return k
}

// RunAfterGet threads the retrieved value through every enabled plugin's
// AfterGet hook, letting each decorate it in turn.
func (r *Registry) RunAfterGet(ctx context.Context, k key.Key, v any, found bool) any {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(AfterGetHook)
		if !ok {
			continue
		}
		var nv any
		err := runHook("after_get", func() error {
			var herr error
			nv, herr = hook.AfterGet(ctx, k, v, found)
			return herr
		})
		if err != nil {
			r.recordFault(ctx, reg, "after_get", err)
			continue
		}
		v = nv
	}
	return v
}

// RunBeforeRemove threads k through every enabled plugin's BeforeRemove
// hook.
func (r *Registry) RunBeforeRemove(ctx context.Context, k key.Key) key.Key {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(BeforeRemoveHook)
		if !ok {
			continue
		}
		var nk key.Key
		err := runHook("before_remove", func() error {
			var herr error
			nk, herr = hook.BeforeRemove(ctx, k)
			return herr
		})
		if err != nil {
			r.recordFault(ctx, reg, "before_remove", err)
			continue
		}
		k = nk
	}
	return k
}

// RunAfterRemove notifies every enabled plugin's AfterRemove hook.
func (r *Registry) RunAfterRemove(ctx context.Context, k key.Key, removed bool) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(AfterRemoveHook)
		if !ok {
			continue
		}
		if err := runHook("after_remove", func() error { return hook.AfterRemove(ctx, k, removed) }); err != nil {
			r.recordFault(ctx, reg, "after_remove", err)
		}
	}
}

// RunBeforeClear asks every enabled plugin's BeforeClear hook whether the
// clear may proceed. The first explicit veto (proceed=false, no error)
// stops the clear; a faulting hook is isolated and does not veto.
func (r *Registry) RunBeforeClear(ctx context.Context) (proceed bool) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(BeforeClearHook)
		if !ok {
			continue
		}
		var ok2 bool
		err := runHook("before_clear", func() error {
			var herr error
			ok2, herr = hook.BeforeClear(ctx)
			return herr
		})
		if err != nil {
			r.recordFault(ctx, reg, "before_clear", err)
			continue
		}
		if !ok2 {
			return false
		}
	}
	return true
}

// RunAfterClear notifies every enabled plugin's AfterClear hook.
func (r *Registry) RunAfterClear(ctx context.Context) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(AfterClearHook)
		if !ok {
			continue
		}
		if err := runHook("after_clear", func() error { return hook.AfterClear(ctx) }); err != nil {
			r.recordFault(ctx, reg, "after_clear", err)
		}
	}
}

// RunOnError notifies every enabled plugin's ErrorHook of an error
// encountered by a core operation (independent of RunBefore*/RunAfter*'s
// own fault isolation, which attributes faults to the plugin that caused
// them rather than the operation's own error).
func (r *Registry) RunOnError(ctx context.Context, op string, opErr error) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(ErrorHook)
		if !ok {
			continue
		}
		safeCall(func() { hook.OnError(ctx, op, opErr) })
	}
}

// RunOnMetrics notifies every enabled plugin's MetricsHook with a metrics
// snapshot.
func (r *Registry) RunOnMetrics(ctx context.Context, snapshot map[string]any) {
	for _, reg := range r.enabled() {
		hook, ok := reg.plugin.(MetricsHook)
		if !ok {
			continue
		}
		safeCall(func() { hook.OnMetrics(ctx, snapshot) })
	}
}

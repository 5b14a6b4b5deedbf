package canonstore

import (
	"context"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// FindByValue returns every stored key whose value satisfies pred, in
// iteration order.
func (e *Engine) FindByValue(pred func(v any) bool) []key.Key {
	var out []key.Key
	e.Iterate(func(k key.Key, v any) bool {
		if pred(v) {
			out = append(out, k)
		}
		return true
	})
	return out
}

// Filter returns every (key, value) pair satisfying pred, in iteration
// order.
func (e *Engine) Filter(pred func(k key.Key, v any) bool) []Pair {
	var out []Pair
	e.Iterate(func(k key.Key, v any) bool {
		if pred(k, v) {
			out = append(out, Pair{Key: k, Value: v})
		}
		return true
	})
	return out
}

// MapValues applies fn to every stored value and returns a fresh Engine,
// configured identically to e, holding the transformed values under the
// same original keys, rather than mutating e in place.
func (e *Engine) MapValues(ctx context.Context, fn func(k key.Key, v any) any) *Engine {
	out := New(e.optsCopy)
	e.Iterate(func(k key.Key, v any) bool {
		out.Put(ctx, k, fn(k, v))
		return true
	})
	return out
}

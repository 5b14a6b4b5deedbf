package canonstore

import (
	"context"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// Pair is one logical key/value pair for the bulk operations.
type Pair struct {
	Key   key.Key
	Value any
}

// PutAll stores every pair in order, stopping on the first error the
// recovery controller doesn't absorb. It reports how many entries were
// fresh insertions (as opposed to overwrites or vetoes).
func (e *Engine) PutAll(ctx context.Context, pairs []Pair) (freshCount int, err error) {
	for _, p := range pairs {
		fresh, putErr := e.Put(ctx, p.Key, p.Value)
		if putErr != nil {
			return freshCount, putErr
		}
		if fresh {
			freshCount++
		}
	}
	return freshCount, nil
}

// GetAll retrieves every key in keys, returning a map from each key's
// fingerprint to its value. Keys with no stored value (Get's found flag
// false) are absent from the map.
func (e *Engine) GetAll(ctx context.Context, keys []key.Key) map[string]any {
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, found, _ := e.Get(ctx, k)
		if found {
			out[e.Fingerprint(k)] = v
		}
	}
	return out
}

// RemoveAll removes every key in keys, returning the count actually
// removed.
func (e *Engine) RemoveAll(ctx context.Context, keys []key.Key) int {
	removed := 0
	for _, k := range keys {
		ok, _ := e.Remove(ctx, k)
		if ok {
			removed++
		}
	}
	return removed
}

// Package serialize implements the adaptive serializer: strategy dispatch,
// cycle detection, and canonical fingerprint forms for every key variant.
// Serialize is total by contract — it never panics outward and always
// returns a string, falling back to a distinguishable placeholder when
// every strategy has been exhausted.
package serialize

import (
	"fmt"
	"sync/atomic"

	"github.com/allaspectsdev/canonstore/internal/classify"
	"github.com/allaspectsdev/canonstore/internal/key"
	"github.com/allaspectsdev/canonstore/internal/tiercache"
)

// DefaultMaxDepth is the default recursion bound into nested records and
// lists.
const DefaultMaxDepth = 50

// Options configures a Serializer.
type Options struct {
	// MaxDepth bounds recursion into nested records/lists. Exceeding it
	// emits "[MaxDepthExceeded]" for the offending subtree.
	MaxDepth int

	// DistinctOpaqueSymbols reverses the default opaque-symbol collapse,
	// treating each opaque symbol instance as distinct. Off by default.
	DistinctOpaqueSymbols bool

	// DisableAdaptive skips priority-ordered strategy dispatch entirely and
	// always serializes through the fast-hash strategy, trading fingerprint
	// readability for a single, uniform code path.
	DisableAdaptive bool

	// Cache, if non-nil, memoizes container fingerprints keyed by stable
	// container id. Primitives never consult the cache regardless of this
	// setting.
	Cache *tiercache.Cache

	// OnFallback, if set, is invoked whenever serialization of some
	// subtree had to fall through every strategy to the absolute
	// fallback. The engine wires this to the error-recovery controller so
	// repeated failures can trip the fallback latch (a SerializationError)
	// without the serialize package importing internal/recovery itself.
	OnFallback func()
}

// Serializer dispatches keys to the highest-priority applicable strategy,
// tracking an in-flight visited set for cycle detection and minting stable
// ids for container nodes it sees for the first time.
type Serializer struct {
	opts Options
}

// nextStableID mints container ids. It is shared by every Serializer in the
// process because ids are stored on the key nodes themselves, so a node
// first seen by one Serializer keeps its id when another one sees it.
var nextStableID atomic.Uint64

// New creates a Serializer. A zero Options uses DefaultMaxDepth and the
// opaque-symbol-collapse default.
func New(opts Options) *Serializer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Serializer{opts: opts}
}

// traversal holds the state scoped to a single top-level Serialize call:
// the set of container identities currently being visited (for cycle
// detection — entries are pushed on entry and popped on exit).
type traversal struct {
	visited map[any]bool
}

// Serialize computes the canonical fingerprint string for k. It never
// panics and never returns an error: when every strategy fails, the result
// is "[<tag>:<fast-hash signature>]".
func (s *Serializer) Serialize(k key.Key) string {
	tr := &traversal{visited: make(map[any]bool)}
	return s.serializeValue(k, tr, 0)
}

// serializeValue is the recursive entry point shared by every strategy's
// emit function. It applies the depth bound, the container cache, and
// cycle detection before dispatching to a strategy.
func (s *Serializer) serializeValue(k key.Key, tr *traversal, depth int) string {
	if depth > s.opts.MaxDepth {
		return "[MaxDepthExceeded]"
	}

	if !k.IsContainer() {
		// Primitives bypass the cache: computation is trivially cheap and
		// caching them would only pollute the tiered cache.
		return s.dispatch(k, tr, depth)
	}

	ident := k.ContainerIdentity()
	if tr.visited[ident] {
		id := s.identityFor(k)
		return fmt.Sprintf("[Circular:%d]", id)
	}

	id := s.identityFor(k)
	cacheKey := cacheKeyFor(id)
	if s.opts.Cache != nil {
		if f, ok := s.opts.Cache.Get(cacheKey); ok {
			return f
		}
	}

	tr.visited[ident] = true
	out := s.dispatch(k, tr, depth)
	delete(tr.visited, ident)

	if s.opts.Cache != nil {
		s.opts.Cache.Put(cacheKey, out)
	}
	return out
}

// cacheKeyFor derives the tiered cache's string key from a container's
// stable id. Keying on the stable id (assigned once per container
// instance and reused for its lifetime), rather than a randomized per-call
// id, is what makes container fingerprint caching stable across calls.
func cacheKeyFor(id uint64) string {
	return fmt.Sprintf("ctr:%d", id)
}

// identityFor returns k's container node's stable id, minting one on first
// sight. Ids are unique within the process, assigned lazily and reused for
// the lifetime of the node.
func (s *Serializer) identityFor(k key.Key) uint64 {
	if id, ok := k.StableID(); ok {
		return id
	}
	id := nextStableID.Add(1)
	k.AssignStableID(id)
	return id
}

// dispatch selects the highest-priority applicable strategy for k and
// invokes it, catching any strategy-local panic and falling through to the
// fast-hash strategy, and finally to the absolute fallback if that too
// fails: any strategy-local exception is caught, the serializer falls
// through to the next applicable strategy, and the absolute fallback is
// emitted only when every strategy has been exhausted.
func (s *Serializer) dispatch(k key.Key, tr *traversal, depth int) string {
	if !s.opts.DisableAdaptive {
		cat := classify.Of(k)
		if out, ok := s.tryStrategy(cat, k, tr, depth); ok {
			return out
		}
	}

	// Primary strategy failed or adaptive dispatch is disabled; fall
	// through to fast-hash.
	if out, ok := s.tryStrategy(classify.CategoryFastHash, k, tr, depth); ok {
		return out
	}

	// Every strategy exhausted.
	if s.opts.OnFallback != nil {
		s.opts.OnFallback()
	}
	return fmt.Sprintf("[%s:%s]", k.Tag, emitFastHash(s, k, depth, tr))
}

// tryStrategy looks up the strategy for cat and runs it under panic
// recovery, reporting ok=false if the category is unknown or the strategy
// panicked.
func (s *Serializer) tryStrategy(cat classify.Category, k key.Key, tr *traversal, depth int) (out string, ok bool) {
	entry, found := strategyFor(cat)
	if !found {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return entry.emit(s, k, depth, tr), true
}

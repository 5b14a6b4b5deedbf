package serialize

import (
	"github.com/allaspectsdev/canonstore/internal/classify"
	"github.com/allaspectsdev/canonstore/internal/key"
)

// emitFunc produces the canonical form for a key already known to fall in
// a strategy's category. depth is the current recursion depth (used for
// the max-depth bound on recursive calls this strategy makes); tr is the
// in-flight traversal's cycle-detection/cache state.
type emitFunc func(s *Serializer, k key.Key, depth int, tr *traversal) string

// strategyEntry is a (name, priority, emit) triple the serializer
// dispatches through in descending priority order.
type strategyEntry struct {
	Name     string
	Priority classify.Category
	emit     emitFunc
}

// table lists every strategy in descending priority order. It is built
// once at package init and never mutated, so concurrent dispatch needs no
// locking around it. Entries are looked up by the classify category of
// the key at hand; the single complex entry reuses the record/list emit
// functions of the small-shape strategies since the canonical form
// for "complex" values is identical to the small-shape form, just without
// the size guard (the guard already lives in internal/classify).
var table = []strategyEntry{
	{Name: "primitive", Priority: classify.CategoryPrimitive, emit: emitPrimitive},
	{Name: "small_record", Priority: classify.CategorySmallRecord, emit: emitRecord},
	{Name: "small_primitive_list", Priority: classify.CategorySmallPrimitiveList, emit: emitList},
	{Name: "date", Priority: classify.CategoryDate, emit: emitTagged},
	{Name: "regex", Priority: classify.CategoryRegex, emit: emitRegex},
	{Name: "error", Priority: classify.CategoryErr, emit: emitErr},
	{Name: "function", Priority: classify.CategoryFunc, emit: emitFunc_},
	{Name: "complex", Priority: classify.CategoryComplex, emit: emitComplex},
	{Name: "fast_hash", Priority: classify.CategoryFastHash, emit: emitFastHash},
}

// emitTagged serves the date, regex and error categories, which share the
// Category value 85 and so all resolve to the first priority-85 table
// entry; it dispatches on the key's own tag.
func emitTagged(s *Serializer, k key.Key, depth int, tr *traversal) string {
	switch k.Tag {
	case key.TagRegex:
		return emitRegex(s, k, depth, tr)
	case key.TagErr:
		return emitErr(s, k, depth, tr)
	default:
		return emitDate(s, k, depth, tr)
	}
}

// strategyFor returns the strategy entry whose category matches cat, and
// whether one was found. Categories map one-to-one onto table entries
// except CategoryComplex and the shared priority-85 category, whose emit
// functions dispatch on the key's own tag.
func strategyFor(cat classify.Category) (strategyEntry, bool) {
	for _, s := range table {
		if s.Priority == cat {
			return s, true
		}
	}
	return strategyEntry{}, false
}

// StrategyNames returns the dispatch-ordered strategy names, for
// diagnostics and tests that assert on the published table shape.
func StrategyNames() []string {
	names := make([]string, len(table))
	for i, s := range table {
		names[i] = s.Name
	}
	return names
}

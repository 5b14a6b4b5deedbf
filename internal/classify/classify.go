// Package classify decides which fingerprint-strategy category a key value
// falls into. It holds no state and performs no I/O; it is pure enough that
// internal/serialize calls it on every dispatch without caching the
// result.
package classify

import "github.com/allaspectsdev/canonstore/internal/key"

// Category is one of the strategy-table buckets in the serializer's
// dispatch table, in descending priority order.
type Category int

const (
	// CategoryPrimitive covers null, undefined, bool, int, float, string,
	// bigint, and symbols — anything with no nested structure.
	CategoryPrimitive Category = 100
	// CategorySmallRecord covers records with at most 5 shallow fields,
	// each itself primitive or a small record.
	CategorySmallRecord Category = 95
	// CategorySmallPrimitiveList covers lists of length <= 10 whose
	// elements are all primitive.
	CategorySmallPrimitiveList Category = 90
	// CategoryDate, CategoryRegex, CategoryErr share priority 85 and thus
	// one Category value; they are mutually exclusive by tag, and the
	// serializer tells them apart by the key's tag.
	CategoryDate  Category = 85
	CategoryRegex Category = 85
	CategoryErr   Category = 85
	// CategoryFunc covers function references.
	CategoryFunc Category = 80
	// CategoryComplex is the general record/list strategy without size
	// guards — the wide safety net below the fast-path shapes.
	CategoryComplex Category = 75
	// CategoryFastHash is the last-resort fallback, never reached for a
	// well-formed Key value (every tag is handled by one of the above) but
	// kept for values that arrive already malformed (e.g. a nil container
	// node).
	CategoryFastHash Category = 10
)

// maxShallowFields is the "≤5 shallow fields" bound for small-record
// dispatch.
const maxShallowFields = 5

// maxSmallListLen is the "length ≤10" bound for small-primitive-list
// dispatch.
const maxSmallListLen = 10

// isPrimitiveTag reports whether t is one of the primitive-family tags:
// null, undefined, bool, int, float, string, bigint, or either symbol kind.
func isPrimitiveTag(t key.Tag) bool {
	switch t {
	case key.TagNull, key.TagUndefined, key.TagBool, key.TagInt, key.TagFloat,
		key.TagString, key.TagBigInt, key.TagInternedSymbol, key.TagOpaqueSymbol:
		return true
	default:
		return false
	}
}

// Of classifies k into the strategy category the serializer should
// dispatch to. It inspects one level of nesting for small-record/list
// eligibility — the "shallow fields" check.
func Of(k key.Key) Category {
	switch k.Tag {
	case key.TagNull, key.TagUndefined, key.TagBool, key.TagInt, key.TagFloat,
		key.TagString, key.TagBigInt, key.TagInternedSymbol, key.TagOpaqueSymbol:
		return CategoryPrimitive

	case key.TagDate:
		return CategoryDate
	case key.TagRegex:
		return CategoryRegex
	case key.TagErr:
		return CategoryErr
	case key.TagFunc:
		return CategoryFunc

	case key.TagRecord:
		if k.Record == nil {
			return CategoryFastHash
		}
		if isSmallRecord(k.Record.Fields) {
			return CategorySmallRecord
		}
		return CategoryComplex

	case key.TagList:
		if k.List == nil {
			return CategoryFastHash
		}
		if isSmallPrimitiveList(k.List.Items) {
			return CategorySmallPrimitiveList
		}
		return CategoryComplex

	default:
		return CategoryFastHash
	}
}

// isSmallRecord reports whether fields has at most maxShallowFields
// entries, each of which is itself primitive or a (recursively) small
// record.
func isSmallRecord(fields map[string]key.Key) bool {
	if len(fields) > maxShallowFields {
		return false
	}
	for _, v := range fields {
		if isPrimitiveTag(v.Tag) {
			continue
		}
		if v.Tag == key.TagRecord && v.Record != nil && isSmallRecord(v.Record.Fields) {
			continue
		}
		return false
	}
	return true
}

// isSmallPrimitiveList reports whether items has at most maxSmallListLen
// entries, all primitive.
func isSmallPrimitiveList(items []key.Key) bool {
	if len(items) > maxSmallListLen {
		return false
	}
	for _, v := range items {
		if !isPrimitiveTag(v.Tag) {
			return false
		}
	}
	return true
}

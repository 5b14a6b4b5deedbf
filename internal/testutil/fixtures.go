// Package testutil provides fixtures shared by canonstore's package tests:
// sample logical keys covering every classify.Category, and a couple of
// small test-only engine/config helpers.
package testutil

import (
	"math/big"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// SmallRecordKey returns a small record (≤5 fields, all primitive).
func SmallRecordKey() key.Key {
	return key.NewRecord(map[string]key.Key{
		"id":   key.NewInt(1),
		"name": key.NewString("A"),
	})
}

// SmallRecordKeyPermuted returns a structurally-equal permutation of
// SmallRecordKey with fields inserted in a different order, useful for
// asserting P3 (key-order irrelevance).
func SmallRecordKeyPermuted() key.Key {
	return key.NewRecord(map[string]key.Key{
		"name": key.NewString("A"),
		"id":   key.NewInt(1),
	})
}

// NestedRecordKey returns a record containing another record and a list,
// exercising recursive dispatch through the complex strategy.
func NestedRecordKey() key.Key {
	return key.NewRecord(map[string]key.Key{
		"user": key.NewRecord(map[string]key.Key{
			"id":   key.NewInt(7),
			"tags": key.NewList([]key.Key{key.NewString("a"), key.NewString("b")}),
		}),
		"active": key.NewBool(true),
	})
}

// SmallPrimitiveListKey returns a ≤10-element list of primitives.
func SmallPrimitiveListKey() key.Key {
	return key.NewList([]key.Key{key.NewInt(1), key.NewInt(2), key.NewInt(3)})
}

// DateKey wraps an epoch-millisecond timestamp.
func DateKey(epochMillis int64) key.Key { return key.NewDate(epochMillis) }

// RegexKey returns a representative regular-expression key.
func RegexKey() key.Key { return key.NewRegex(`^\d+$`, "g") }

// ErrKey returns a representative error key.
func ErrKey() key.Key { return key.NewErr("ValidationError", "field is required") }

// FuncKey returns a representative named function-reference key.
func FuncKey() key.Key { return key.NewFunc("handler", 2) }

// BigIntKey wraps a decimal string as an arbitrary-precision integer key.
func BigIntKey(decimal string) key.Key {
	n := new(big.Int)
	n.SetString(decimal, 10)
	return key.NewBigInt(n)
}

// InternedSymbolKey returns an interned symbol registered under name.
func InternedSymbolKey(name string) key.Key { return key.NewInternedSymbol(name) }

// OpaqueSymbolKeys returns three distinct opaque symbols, useful for
// asserting the default collapse-to-one-equivalence-class behavior (P7).
func OpaqueSymbolKeys() (a, b, c key.Key) {
	return key.NewOpaqueSymbol(1), key.NewOpaqueSymbol(2), key.NewOpaqueSymbol(3)
}

// CyclicRecordKey builds a record `{id: 1}` whose "self" field points back
// to itself, exercising the serializer's cycle detection (P8). It mutates
// the RecordNode in place after construction since key.Key's constructors
// have no way to express a cycle directly.
func CyclicRecordKey() key.Key {
	k := key.NewRecord(map[string]key.Key{"id": key.NewInt(1)})
	k.Record.Fields["self"] = k
	return k
}

// DeepChainKey builds a record nested depth levels deep, for exercising
// the serializer's max-depth bound.
func DeepChainKey(depth int) key.Key {
	cur := key.NewInt(0)
	for i := 0; i < depth; i++ {
		cur = key.NewRecord(map[string]key.Key{"next": cur})
	}
	return cur
}

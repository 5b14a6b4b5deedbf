package classify

import (
	"testing"

	"github.com/allaspectsdev/canonstore/internal/key"
)

func TestOfPrimitives(t *testing.T) {
	cases := []key.Key{
		key.Null(), key.Undefined(), key.NewBool(true),
		key.NewInt(1), key.NewFloat(1.5), key.NewString("x"),
		key.NewInternedSymbol("s"), key.NewOpaqueSymbol(1),
	}
	for _, k := range cases {
		if got := Of(k); got != CategoryPrimitive {
			t.Errorf("Of(%v) = %v, want CategoryPrimitive", k.Tag, got)
		}
	}
}

func TestOfTaggedShapes(t *testing.T) {
	cases := []struct {
		k    key.Key
		want Category
	}{
		{key.NewDate(0), CategoryDate},
		{key.NewRegex("a", "i"), CategoryRegex},
		{key.NewErr("E", "m"), CategoryErr},
		{key.NewFunc("f", 2), CategoryFunc},
	}
	for _, tc := range cases {
		if got := Of(tc.k); got != tc.want {
			t.Errorf("Of(%v) = %v, want %v", tc.k.Tag, got, tc.want)
		}
	}
}

func TestOfSmallVsComplexRecord(t *testing.T) {
	small := key.NewRecord(map[string]key.Key{"a": key.NewInt(1), "b": key.NewInt(2)})
	if got := Of(small); got != CategorySmallRecord {
		t.Errorf("small record: got %v, want CategorySmallRecord", got)
	}

	big := map[string]key.Key{}
	for i := 0; i < 6; i++ {
		big[string(rune('a'+i))] = key.NewInt(int64(i))
	}
	complexRecord := key.NewRecord(big)
	if got := Of(complexRecord); got != CategoryComplex {
		t.Errorf("6-field record: got %v, want CategoryComplex", got)
	}

	nested := key.NewRecord(map[string]key.Key{"x": key.NewRecord(map[string]key.Key{"y": key.NewList(nil)})})
	if got := Of(nested); got != CategoryComplex {
		t.Errorf("record nesting a non-primitive non-small-record field: got %v, want CategoryComplex", got)
	}
}

func TestOfSmallVsComplexList(t *testing.T) {
	small := key.NewList([]key.Key{key.NewInt(1), key.NewInt(2)})
	if got := Of(small); got != CategorySmallPrimitiveList {
		t.Errorf("short primitive list: got %v, want CategorySmallPrimitiveList", got)
	}

	items := make([]key.Key, 11)
	for i := range items {
		items[i] = key.NewInt(int64(i))
	}
	long := key.NewList(items)
	if got := Of(long); got != CategoryComplex {
		t.Errorf("11-element list: got %v, want CategoryComplex", got)
	}

	mixed := key.NewList([]key.Key{key.NewInt(1), key.NewList(nil)})
	if got := Of(mixed); got != CategoryComplex {
		t.Errorf("list containing a non-primitive: got %v, want CategoryComplex", got)
	}
}

func TestOfNilContainerNodeFallsBackToFastHash(t *testing.T) {
	malformed := key.Key{Tag: key.TagList}
	if got := Of(malformed); got != CategoryFastHash {
		t.Errorf("nil List node: got %v, want CategoryFastHash", got)
	}
}

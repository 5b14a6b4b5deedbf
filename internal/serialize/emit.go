package serialize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// emitPrimitive implements the priority-100 strategy: null / undefined /
// quoted string / decimal number / bool / symbol forms / bigint.
func emitPrimitive(s *Serializer, k key.Key, depth int, tr *traversal) string {
	switch k.Tag {
	case key.TagNull:
		return "null"
	case key.TagUndefined:
		return "undefined"
	case key.TagBool:
		if k.Bool {
			return "true"
		}
		return "false"
	case key.TagInt:
		return strconv.FormatInt(k.Int, 10)
	case key.TagFloat:
		return strconv.FormatFloat(k.Float, 'g', -1, 64)
	case key.TagString:
		return strconv.Quote(k.Str)
	case key.TagBigInt:
		if k.BigInt == nil {
			return "0s"
		}
		return k.BigInt.String() + "s"
	case key.TagInternedSymbol:
		return fmt.Sprintf("Symbol.for(%s)", strconv.Quote(k.Symbol))
	case key.TagOpaqueSymbol:
		if s.opts.DistinctOpaqueSymbols {
			return fmt.Sprintf("Symbol(%d)", k.OpaqueID)
		}
		return "Symbol()"
	default:
		return emitFastHash(s, k, depth, tr)
	}
}

// emitRecord implements the record canonical form shared by the
// small_record and complex strategies: keys in lexicographic order, values
// recursively serialized. A nil Record node (malformed input) falls back
// to the fast-hash strategy rather than panicking.
func emitRecord(s *Serializer, k key.Key, depth int, tr *traversal) string {
	if k.Record == nil {
		return emitFastHash(s, k, depth, tr)
	}
	fields := k.Record.Fields
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(name))
		b.WriteByte(':')
		b.WriteString(s.serializeValue(fields[name], tr, depth+1))
	}
	b.WriteByte('}')
	return b.String()
}

// emitList implements the list canonical form shared by the
// small_primitive_list and complex strategies.
func emitList(s *Serializer, k key.Key, depth int, tr *traversal) string {
	if k.List == nil {
		return emitFastHash(s, k, depth, tr)
	}
	items := k.List.Items
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s.serializeValue(item, tr, depth+1))
	}
	b.WriteByte(']')
	return b.String()
}

// emitComplex is the priority-75 safety net: same canonical form as
// emitRecord/emitList, selected for shapes too large to qualify as
// small_record/small_primitive_list.
func emitComplex(s *Serializer, k key.Key, depth int, tr *traversal) string {
	if k.Tag == key.TagRecord {
		return emitRecord(s, k, depth, tr)
	}
	return emitList(s, k, depth, tr)
}

// emitDate implements `[Date:<milliseconds-since-epoch>]`. Two dates with
// equal timestamps collide — there is no coalescing window.
func emitDate(s *Serializer, k key.Key, depth int, tr *traversal) string {
	return fmt.Sprintf("[Date:%d]", k.DateMillis)
}

// emitRegex implements `[RegExp:<source-with-flags>]`.
func emitRegex(s *Serializer, k key.Key, depth int, tr *traversal) string {
	return fmt.Sprintf("[RegExp:%s/%s]", k.Regex.Source, k.Regex.Flags)
}

// emitErr implements `[Error:<kind>:<message>]`.
func emitErr(s *Serializer, k key.Key, depth int, tr *traversal) string {
	return fmt.Sprintf("[Error:%s:%s]", k.Err.Kind, k.Err.Message)
}

// emitFunc_ implements `[Function:<name-or-anonymous>:<arity>]`. Named
// with a trailing underscore to avoid shadowing the key.Func type.
func emitFunc_(s *Serializer, k key.Key, depth int, tr *traversal) string {
	name := k.Func.Name
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("[Function:%s:%d]", name, k.Func.Arity)
}

// maxFastHashPrefix bounds how much of a value's textual form the
// fast-hash fallback includes, keeping the signature compact.
const maxFastHashPrefix = 32

// emitFastHash implements the priority-10 fallback: a compact signature
// based on type + arity + a small value prefix. It is the terminal
// strategy — it must never itself fail, since there is nothing left to
// fall through to except the absolute fallback in Serializer.Serialize.
func emitFastHash(s *Serializer, k key.Key, depth int, tr *traversal) string {
	arity := 0
	switch k.Tag {
	case key.TagList:
		if k.List != nil {
			arity = len(k.List.Items)
		}
	case key.TagRecord:
		if k.Record != nil {
			arity = len(k.Record.Fields)
		}
	}
	prefix := fmt.Sprintf("%+v", k)
	if len(prefix) > maxFastHashPrefix {
		prefix = prefix[:maxFastHashPrefix]
	}
	return fmt.Sprintf("#%s:%d:%s", k.Tag, arity, prefix)
}

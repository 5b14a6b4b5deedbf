// Package httpapi is the optional REST and SSE facade over a canonstore
// Engine: chi routing, a JSON error convention, and SSE event framing for
// iteration. The handler only ever calls Engine methods — it is an
// external collaborator at the engine's interface, not part of the core.
package httpapi

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/allaspectsdev/canonstore/internal/key"
)

// wireKey is the JSON wire shape of a key.Key: always a JSON object (or
// null). Its "type" field names the variant; when "type" is absent or
// "null", the variant is inferred from which of the bool/int/float/str/
// list/record fields is set. A bare JSON literal such as 42 or "a" is not
// accepted as a key.
type wireKey struct {
	Type string `json:"type,omitempty"`

	Bool   *bool    `json:"bool,omitempty"`
	Int    *int64   `json:"int,omitempty"`
	Float  *float64 `json:"float,omitempty"`
	Str    *string  `json:"str,omitempty"`
	BigInt string   `json:"bigint,omitempty"`

	Symbol   string `json:"symbol,omitempty"`
	OpaqueID uint64 `json:"opaque_id,omitempty"`

	DateMillis int64 `json:"date_millis,omitempty"`

	RegexSource string `json:"regex_source,omitempty"`
	RegexFlags  string `json:"regex_flags,omitempty"`

	ErrKind    string `json:"err_kind,omitempty"`
	ErrMessage string `json:"err_message,omitempty"`

	FuncName  string `json:"func_name,omitempty"`
	FuncArity int    `json:"func_arity,omitempty"`

	List   []wireKey          `json:"list,omitempty"`
	Record map[string]wireKey `json:"record,omitempty"`
}

// keyToWire converts a key.Key into its JSON wire representation.
func keyToWire(k key.Key) wireKey {
	switch k.Tag {
	case key.TagNull:
		return wireKey{Type: "null"}
	case key.TagUndefined:
		return wireKey{Type: "undefined"}
	case key.TagBool:
		b := k.Bool
		return wireKey{Type: "bool", Bool: &b}
	case key.TagInt:
		i := k.Int
		return wireKey{Type: "int", Int: &i}
	case key.TagFloat:
		f := k.Float
		return wireKey{Type: "float", Float: &f}
	case key.TagString:
		s := k.Str
		return wireKey{Type: "string", Str: &s}
	case key.TagBigInt:
		text := "0"
		if k.BigInt != nil {
			text = k.BigInt.String()
		}
		return wireKey{Type: "bigint", BigInt: text}
	case key.TagInternedSymbol:
		return wireKey{Type: "interned_symbol", Symbol: k.Symbol}
	case key.TagOpaqueSymbol:
		return wireKey{Type: "opaque_symbol", OpaqueID: uint64(k.OpaqueID)}
	case key.TagDate:
		return wireKey{Type: "date", DateMillis: k.DateMillis}
	case key.TagRegex:
		return wireKey{Type: "regex", RegexSource: k.Regex.Source, RegexFlags: k.Regex.Flags}
	case key.TagErr:
		return wireKey{Type: "error", ErrKind: k.Err.Kind, ErrMessage: k.Err.Message}
	case key.TagFunc:
		return wireKey{Type: "function", FuncName: k.Func.Name, FuncArity: k.Func.Arity}
	case key.TagList:
		items := make([]wireKey, 0, len(k.List.Items))
		for _, item := range k.List.Items {
			items = append(items, keyToWire(item))
		}
		return wireKey{Type: "list", List: items}
	case key.TagRecord:
		fields := make(map[string]wireKey, len(k.Record.Fields))
		for name, field := range k.Record.Fields {
			fields[name] = keyToWire(field)
		}
		return wireKey{Type: "record", Record: fields}
	default:
		return wireKey{Type: "null"}
	}
}

// wireToKey converts a JSON wire key back into a key.Key. A missing or
// "null" Type infers the shape from which fields are set (null if none
// is); an unrecognized Type is an error.
func wireToKey(w wireKey) (key.Key, error) {
	switch w.Type {
	case "", "null":
		if w.Bool != nil {
			return key.NewBool(*w.Bool), nil
		}
		if w.Int != nil {
			return key.NewInt(*w.Int), nil
		}
		if w.Float != nil {
			return key.NewFloat(*w.Float), nil
		}
		if w.Str != nil {
			return key.NewString(*w.Str), nil
		}
		if w.List != nil {
			return wireListToKey(w.List)
		}
		if w.Record != nil {
			return wireRecordToKey(w.Record)
		}
		return key.Null(), nil
	case "undefined":
		return key.Undefined(), nil
	case "bool":
		if w.Bool == nil {
			return key.Key{}, fmt.Errorf("httpapi: bool key missing \"bool\" field")
		}
		return key.NewBool(*w.Bool), nil
	case "int":
		if w.Int == nil {
			return key.Key{}, fmt.Errorf("httpapi: int key missing \"int\" field")
		}
		return key.NewInt(*w.Int), nil
	case "float":
		if w.Float == nil {
			return key.Key{}, fmt.Errorf("httpapi: float key missing \"float\" field")
		}
		return key.NewFloat(*w.Float), nil
	case "string":
		if w.Str == nil {
			return key.Key{}, fmt.Errorf("httpapi: string key missing \"str\" field")
		}
		return key.NewString(*w.Str), nil
	case "bigint":
		n, ok := new(big.Int).SetString(w.BigInt, 10)
		if !ok {
			return key.Key{}, fmt.Errorf("httpapi: invalid bigint literal %q", w.BigInt)
		}
		return key.NewBigInt(n), nil
	case "interned_symbol":
		return key.NewInternedSymbol(w.Symbol), nil
	case "opaque_symbol":
		return key.NewOpaqueSymbol(key.OpaqueID(w.OpaqueID)), nil
	case "date":
		return key.NewDate(w.DateMillis), nil
	case "regex":
		return key.NewRegex(w.RegexSource, w.RegexFlags), nil
	case "error":
		return key.NewErr(w.ErrKind, w.ErrMessage), nil
	case "function":
		return key.NewFunc(w.FuncName, w.FuncArity), nil
	case "list":
		return wireListToKey(w.List)
	case "record":
		return wireRecordToKey(w.Record)
	default:
		return key.Key{}, fmt.Errorf("httpapi: unknown key type %q", w.Type)
	}
}

func wireListToKey(items []wireKey) (key.Key, error) {
	out := make([]key.Key, 0, len(items))
	for i, item := range items {
		k, err := wireToKey(item)
		if err != nil {
			return key.Key{}, fmt.Errorf("httpapi: list item %d: %w", i, err)
		}
		out = append(out, k)
	}
	return key.NewList(out), nil
}

func wireRecordToKey(fields map[string]wireKey) (key.Key, error) {
	out := make(map[string]key.Key, len(fields))
	for name, field := range fields {
		k, err := wireToKey(field)
		if err != nil {
			return key.Key{}, fmt.Errorf("httpapi: record field %q: %w", name, err)
		}
		out[name] = k
	}
	return key.NewRecord(out), nil
}

// entryRequest is the JSON body for POST /entries.
type entryRequest struct {
	Key   wireKey         `json:"key"`
	Value json.RawMessage `json:"value"`
}

// entryResponse is the JSON body returned for a single entry.
type entryResponse struct {
	Fingerprint string  `json:"fingerprint"`
	Key         wireKey `json:"key"`
	Value       any     `json:"value"`
}

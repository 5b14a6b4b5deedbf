// Package key models the logical key union that canonstore indexes by:
// the tagged sum of primitives, symbols, dates, regexes, errors, function
// references, lists, and records. Records and lists are held behind
// pointers (ListNode/RecordNode)
// so that a caller building a native object graph can wire a genuine
// pointer cycle into a Key; internal/serialize detects such cycles by
// container identity (the pointer itself) rather than by value.
package key

import "math/big"

// Tag identifies which variant of Key is populated.
type Tag int

const (
	TagNull Tag = iota
	TagUndefined
	TagBool
	TagInt
	TagFloat
	TagString
	TagBigInt
	TagInternedSymbol
	TagOpaqueSymbol
	TagDate
	TagRegex
	TagErr
	TagFunc
	TagList
	TagRecord
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagUndefined:
		return "undefined"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagBigInt:
		return "bigint"
	case TagInternedSymbol:
		return "interned_symbol"
	case TagOpaqueSymbol:
		return "opaque_symbol"
	case TagDate:
		return "date"
	case TagRegex:
		return "regex"
	case TagErr:
		return "error"
	case TagFunc:
		return "function"
	case TagList:
		return "list"
	case TagRecord:
		return "record"
	default:
		return "unknown"
	}
}

// OpaqueID identifies an opaque (unregistered) symbol instance. Under the
// default configuration all opaque symbols compare equal regardless of
// their OpaqueID (see serialize.Options.DistinctOpaqueSymbols); the field
// only matters when that option is enabled.
type OpaqueID uint64

// Func describes a function reference: name and arity, nothing else is
// observable about a function value for fingerprinting purposes.
type Func struct {
	Name  string // "" means anonymous
	Arity int
}

// Regex describes a regular expression by its source pattern and flags.
type Regex struct {
	Source string
	Flags  string
}

// Err describes an error value by its kind (usually the Go type name or a
// caller-supplied category) and message.
type Err struct {
	Kind    string
	Message string
}

// ListNode is the identity-bearing body of a TagList key. Two distinct
// ListNode pointers with identical Items are structurally equal but are
// different instances; a Key whose List field re-enters an already
// in-progress ListNode forms a cycle.
type ListNode struct {
	Items []Key

	// stableID is assigned lazily by the serializer the first time this
	// node is traversed and reused for the lifetime of the node.
	// It exists only so fingerprinting doesn't depend on Go's
	// non-deterministic pointer values being stable strings.
	stableID uint64
}

// RecordNode is the identity-bearing body of a TagRecord key.
type RecordNode struct {
	Fields map[string]Key

	stableID uint64
}

// Key is a single logical key value. Exactly one field is meaningful per
// Tag; List and Record hold pointers to identity-bearing nodes so that
// cyclic graphs are representable with ordinary Go pointers.
type Key struct {
	Tag Tag

	Bool   bool
	Int    int64
	Float  float64
	Str    string
	BigInt *big.Int

	Symbol   string   // interned symbol's registered key
	OpaqueID OpaqueID // opaque symbol instance id

	DateMillis int64

	Regex Regex
	Err   Err
	Func  Func

	List   *ListNode
	Record *RecordNode
}

// Null returns the null key.
func Null() Key { return Key{Tag: TagNull} }

// Undefined returns the "absent" key, distinct from Null per the data model.
func Undefined() Key { return Key{Tag: TagUndefined} }

// NewBool wraps a boolean.
func NewBool(b bool) Key { return Key{Tag: TagBool, Bool: b} }

// NewInt wraps an integer.
func NewInt(i int64) Key { return Key{Tag: TagInt, Int: i} }

// NewFloat wraps a floating-point number.
func NewFloat(f float64) Key { return Key{Tag: TagFloat, Float: f} }

// NewString wraps a string.
func NewString(s string) Key { return Key{Tag: TagString, Str: s} }

// NewBigInt wraps an arbitrary-precision integer.
func NewBigInt(b *big.Int) Key { return Key{Tag: TagBigInt, BigInt: b} }

// NewInternedSymbol wraps a symbol registered under the given textual key.
// Two interned symbols with the same registered key always collide.
func NewInternedSymbol(registeredKey string) Key {
	return Key{Tag: TagInternedSymbol, Symbol: registeredKey}
}

// NewOpaqueSymbol wraps a symbol with no externally comparable identity.
// id only matters when serialize.Options.DistinctOpaqueSymbols is set;
// under the default configuration all opaque symbols collapse to one
// equivalence class regardless of id.
func NewOpaqueSymbol(id OpaqueID) Key {
	return Key{Tag: TagOpaqueSymbol, OpaqueID: id}
}

// NewDate wraps a date as milliseconds since the Unix epoch.
func NewDate(epochMillis int64) Key { return Key{Tag: TagDate, DateMillis: epochMillis} }

// NewRegex wraps a regular expression.
func NewRegex(source, flags string) Key {
	return Key{Tag: TagRegex, Regex: Regex{Source: source, Flags: flags}}
}

// NewErr wraps an error value.
func NewErr(kind, message string) Key { return Key{Tag: TagErr, Err: Err{Kind: kind, Message: message}} }

// NewFunc wraps a function reference.
func NewFunc(name string, arity int) Key { return Key{Tag: TagFunc, Func: Func{Name: name, Arity: arity}} }

// NewList wraps an ordered list of keys in a fresh ListNode.
func NewList(items []Key) Key { return Key{Tag: TagList, List: &ListNode{Items: items}} }

// NewRecord wraps a finite mapping from field name to key in a fresh
// RecordNode.
func NewRecord(fields map[string]Key) Key { return Key{Tag: TagRecord, Record: &RecordNode{Fields: fields}} }

// IsContainer reports whether k is a List or Record — the only variants
// that can participate in cycles or need a stable instance id.
func (k Key) IsContainer() bool {
	return k.Tag == TagList || k.Tag == TagRecord
}

// ContainerIdentity returns the pointer identity of k's container node,
// suitable as a map key for visited-set/cycle tracking. It returns nil for
// non-container keys.
func (k Key) ContainerIdentity() any {
	switch k.Tag {
	case TagList:
		return k.List
	case TagRecord:
		return k.Record
	default:
		return nil
	}
}

// StableID returns the lazily-assigned stable id for k's container node,
// and whether one had already been assigned. Non-container keys always
// report false.
func (k Key) StableID() (uint64, bool) {
	switch k.Tag {
	case TagList:
		if k.List == nil {
			return 0, false
		}
		return k.List.stableID, k.List.stableID != 0
	case TagRecord:
		if k.Record == nil {
			return 0, false
		}
		return k.Record.stableID, k.Record.stableID != 0
	default:
		return 0, false
	}
}

// AssignStableID sets k's container node's stable id if it is unset. It is
// a no-op for non-container keys or if an id is already assigned.
func (k Key) AssignStableID(id uint64) {
	switch k.Tag {
	case TagList:
		if k.List != nil && k.List.stableID == 0 {
			k.List.stableID = id
		}
	case TagRecord:
		if k.Record != nil && k.Record.stableID == 0 {
			k.Record.stableID = id
		}
	}
}

package abi

// ResourceToken is the opaque payload a resource handle carries across the
// boundary. The core never interprets Data; it only moves it in and out of
// a ResourceTable and checks ResourceType identity on lift.
type ResourceToken struct {
	ResourceType string
	Data         any
}

// Value is a concrete, typed payload parallel to Type (spec.md §3). Exactly
// the fields relevant to Kind are populated.
type Value struct {
	Kind TypeKind

	Bool bool
	I8   int8
	U8   uint8
	I16  int16
	U16  uint16
	I32  int32
	U32  uint32
	I64  int64
	U64  uint64
	F32  float32
	F64  float64
	Char rune
	Str  string

	// List: ordered elements. Record/Tuple: ordered, positional members
	// matching the schema's Fields/Elems order.
	Items []Value

	// Variant, Enum: the selected case name. Payload is the case's value
	// (nil for a payload-less case, or for Enum).
	CaseName string
	Payload  *Value

	// Flags: the set of flag names present.
	Flags []string

	// Own, Borrow: the resource token. Present after Lift (the token moved
	// or aliased out of the table) or before Lower (the token to push).
	Resource ResourceToken
}

// BoolValue, etc. are convenience constructors mirroring the primitive
// TypeKinds, used throughout tests and by the passthrough engine.
func BoolValue(b bool) Value     { return Value{Kind: Bool, Bool: b} }
func S8Value(v int8) Value       { return Value{Kind: S8, I8: v} }
func U8Value(v uint8) Value      { return Value{Kind: U8, U8: v} }
func S16Value(v int16) Value     { return Value{Kind: S16, I16: v} }
func U16Value(v uint16) Value    { return Value{Kind: U16, U16: v} }
func S32Value(v int32) Value     { return Value{Kind: S32, I32: v} }
func U32Value(v uint32) Value    { return Value{Kind: U32, U32: v} }
func S64Value(v int64) Value     { return Value{Kind: S64, I64: v} }
func U64Value(v uint64) Value    { return Value{Kind: U64, U64: v} }
func F32Value(v float32) Value   { return Value{Kind: F32, F32: v} }
func F64Value(v float64) Value   { return Value{Kind: F64, F64: v} }
func CharValue(r rune) Value     { return Value{Kind: Char, Char: r} }
func StringValue(s string) Value { return Value{Kind: String, Str: s} }

// ListValue constructs a list value from its elements.
func ListValue(items ...Value) Value { return Value{Kind: List, Items: items} }

// RecordValue constructs a record value from its positional members. Lower
// rejects it under a Tuple schema; use TupleValue for tuples.
func RecordValue(items ...Value) Value { return Value{Kind: Record, Items: items} }

// TupleValue constructs a tuple value from its positional members.
func TupleValue(items ...Value) Value { return Value{Kind: Tuple, Items: items} }

// VariantValue constructs a variant value selecting case name with an
// optional payload.
func VariantValue(name string, payload *Value) Value {
	return Value{Kind: Variant, CaseName: name, Payload: payload}
}

// EnumValue constructs an enum value selecting case name.
func EnumValue(name string) Value { return Value{Kind: Enum, CaseName: name} }

// SomeValue constructs an option value carrying inner.
func SomeValue(inner Value) Value { return Value{Kind: Option, CaseName: "some", Payload: &inner} }

// NoneValue constructs the option "none" value.
func NoneValue() Value { return Value{Kind: Option, CaseName: "none"} }

// OkValue constructs a result "ok" value. payload may be nil for unit ok.
func OkValue(payload *Value) Value { return Value{Kind: Result, CaseName: "ok", Payload: payload} }

// ErrValue constructs a result "err" value. payload may be nil for unit err.
func ErrValue(payload *Value) Value { return Value{Kind: Result, CaseName: "err", Payload: payload} }

// FlagsValue constructs a flags value from the set of present flag names.
func FlagsValue(names ...string) Value { return Value{Kind: Flags, Flags: names} }

// OwnValue constructs an own<T> handle value carrying tok.
func OwnValue(tok ResourceToken) Value { return Value{Kind: Own, Resource: tok} }

// BorrowValue constructs a borrow<T> handle value carrying tok.
func BorrowValue(tok ResourceToken) Value { return Value{Kind: Borrow, Resource: tok} }

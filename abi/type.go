// Package abi implements the Canonical-ABI marshaller: the generic,
// reflection-driven codec that converts between component-model typed values
// and the in-memory layout a C host uses to pass arguments and receive
// results. Schema and Value are both represented as tagged sums, as is
// idiomatic for a codec that has no Go type to reflect over on the C side of
// the boundary (the actual Go types live behind an engine's own reflection,
// see the component package's Schema Reflection Adapter).
package abi

import "fmt"

// Kind of type former. Mirrors the component model's Canonical ABI value
// types one-for-one; see GLOSSARY in spec.md.
type TypeKind uint8

const (
	Bool TypeKind = iota
	S8
	U8
	S16
	U16
	S32
	U32
	S64
	U64
	F32
	F64
	Char
	String
	List
	Record
	Tuple
	Variant
	Enum
	Option
	Result
	Flags
	Own
	Borrow
)

func (k TypeKind) String() string {
	switch k {
	case Bool:
		return "bool"
	case S8:
		return "s8"
	case U8:
		return "u8"
	case S16:
		return "s16"
	case U16:
		return "u16"
	case S32:
		return "s32"
	case U32:
		return "u32"
	case S64:
		return "s64"
	case U64:
		return "u64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Char:
		return "char"
	case String:
		return "string"
	case List:
		return "list"
	case Record:
		return "record"
	case Tuple:
		return "tuple"
	case Variant:
		return "variant"
	case Enum:
		return "enum"
	case Option:
		return "option"
	case Result:
		return "result"
	case Flags:
		return "flags"
	case Own:
		return "own"
	case Borrow:
		return "borrow"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// Field is a named, ordered member of a Record.
type Field struct {
	Name string
	Type Type
}

// Case is a named variant arm. Payload is nil for a case that carries no
// value (this is also how Option's "none" and Result's unit arms are
// expressed).
type Case struct {
	Name    string
	Payload *Type
}

// Type is the schema for a single component-model value: one of the type
// formers enumerated in spec.md §3. Only the fields relevant to Kind are
// populated; the zero value of the irrelevant ones is ignored.
type Type struct {
	Kind TypeKind

	// List, Option: the element/inner type.
	Elem *Type

	// Record
	Fields []Field

	// Tuple
	Elems []Type

	// Variant
	Cases []Case

	// Enum, Flags: case/flag names in declaration order.
	Names []string

	// Result
	Ok  *Type
	Err *Type

	// Own, Borrow: the identity of the resource type, used to reject
	// cross-resource-type handles on lift (ResourceTypeMismatch).
	ResourceType string
}

// Prim constructs a primitive schema type.
func Prim(k TypeKind) Type { return Type{Kind: k} }

// ListOf constructs a list<elem> schema type.
func ListOf(elem Type) Type { return Type{Kind: List, Elem: &elem} }

// OptionOf constructs an option<inner> schema type.
func OptionOf(inner Type) Type { return Type{Kind: Option, Elem: &inner} }

// ResultOf constructs a result<ok, err> schema type. Either may be nil for
// the unit case.
func ResultOf(ok, err *Type) Type { return Type{Kind: Result, Ok: ok, Err: err} }

// RecordOf constructs a record schema type from its fields, in declaration
// order.
func RecordOf(fields ...Field) Type { return Type{Kind: Record, Fields: fields} }

// TupleOf constructs a tuple schema type.
func TupleOf(elems ...Type) Type { return Type{Kind: Tuple, Elems: elems} }

// VariantOf constructs a variant schema type from its cases, in declaration
// order; the order determines the discriminant values.
func VariantOf(cases ...Case) Type { return Type{Kind: Variant, Cases: cases} }

// EnumOf constructs an enum schema type from its case names.
func EnumOf(names ...string) Type { return Type{Kind: Enum, Names: names} }

// FlagsOf constructs a flags schema type from its flag names.
func FlagsOf(names ...string) Type { return Type{Kind: Flags, Names: names} }

// OwnOf constructs an own<resourceType> handle schema type.
func OwnOf(resourceType string) Type { return Type{Kind: Own, ResourceType: resourceType} }

// BorrowOf constructs a borrow<resourceType> handle schema type.
func BorrowOf(resourceType string) Type { return Type{Kind: Borrow, ResourceType: resourceType} }

// caseIndex returns the 0-based position of name among cases/names, and
// whether it was found.
func caseIndex(names []string, name string) (int, bool) {
	for i, n := range names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

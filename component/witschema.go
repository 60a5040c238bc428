// Package component implements the Instance Facade (spec.md §4.5): it owns
// a compiled component, dispatches calls by (interface, name), and is the
// only package outside abi that the C ABI Surface talks to.
package component

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wasmCloud/wadge/abi"
)

// schemaFromWit is the Schema Reflection Adapter (spec.md §4.5, "Schema
// Reflection Adapter" row of §2): it translates a wit.Type, as produced by
// the engine's own type introspection, into the codec's uniform abi.Type
// sum. It never consults a Go reflect.Type — wit's type graph already is
// the schema the codec needs.
func schemaFromWit(t wit.Type) (abi.Type, error) {
	switch tt := t.(type) {
	case wit.Bool:
		return abi.Prim(abi.Bool), nil
	case wit.S8:
		return abi.Prim(abi.S8), nil
	case wit.U8:
		return abi.Prim(abi.U8), nil
	case wit.S16:
		return abi.Prim(abi.S16), nil
	case wit.U16:
		return abi.Prim(abi.U16), nil
	case wit.S32:
		return abi.Prim(abi.S32), nil
	case wit.U32:
		return abi.Prim(abi.U32), nil
	case wit.S64:
		return abi.Prim(abi.S64), nil
	case wit.U64:
		return abi.Prim(abi.U64), nil
	case wit.Float32:
		return abi.Prim(abi.F32), nil
	case wit.Float64:
		return abi.Prim(abi.F64), nil
	case wit.Char:
		return abi.Prim(abi.Char), nil
	case wit.String:
		return abi.Prim(abi.String), nil
	case *wit.TypeDef:
		return schemaFromTypeDef(tt)
	default:
		return abi.Type{}, fmt.Errorf("wadge/component: unsupported wit.Type %T", t)
	}
}

func schemaFromTypeDef(td *wit.TypeDef) (abi.Type, error) {
	switch k := td.Kind.(type) {
	case *wit.Record:
		fields := make([]abi.Field, len(k.Fields))
		for i, f := range k.Fields {
			ft, err := schemaFromWit(f.Type)
			if err != nil {
				return abi.Type{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields[i] = abi.Field{Name: f.Name, Type: ft}
		}
		return abi.RecordOf(fields...), nil
	case *wit.Tuple:
		elems := make([]abi.Type, len(k.Types))
		for i, t := range k.Types {
			et, err := schemaFromWit(t)
			if err != nil {
				return abi.Type{}, fmt.Errorf("tuple element %d: %w", i, err)
			}
			elems[i] = et
		}
		return abi.TupleOf(elems...), nil
	case *wit.Variant:
		cases := make([]abi.Case, len(k.Cases))
		for i, c := range k.Cases {
			var payload *abi.Type
			if c.Type != nil {
				pt, err := schemaFromWit(c.Type)
				if err != nil {
					return abi.Type{}, fmt.Errorf("variant case %q: %w", c.Name, err)
				}
				payload = &pt
			}
			cases[i] = abi.Case{Name: c.Name, Payload: payload}
		}
		return abi.VariantOf(cases...), nil
	case *wit.Enum:
		names := make([]string, len(k.Cases))
		for i, c := range k.Cases {
			names[i] = c.Name
		}
		return abi.EnumOf(names...), nil
	case *wit.Option:
		inner, err := schemaFromWit(k.Type)
		if err != nil {
			return abi.Type{}, fmt.Errorf("option: %w", err)
		}
		return abi.OptionOf(inner), nil
	case *wit.Result:
		var ok, errTy *abi.Type
		if k.OK != nil {
			t, err := schemaFromWit(k.OK)
			if err != nil {
				return abi.Type{}, fmt.Errorf("result ok: %w", err)
			}
			ok = &t
		}
		if k.Err != nil {
			t, err := schemaFromWit(k.Err)
			if err != nil {
				return abi.Type{}, fmt.Errorf("result err: %w", err)
			}
			errTy = &t
		}
		return abi.ResultOf(ok, errTy), nil
	case *wit.Flags:
		names := make([]string, len(k.Flags))
		for i, f := range k.Flags {
			names[i] = f.Name
		}
		return abi.FlagsOf(names...), nil
	case *wit.List:
		elem, err := schemaFromWit(k.Type)
		if err != nil {
			return abi.Type{}, fmt.Errorf("list: %w", err)
		}
		return abi.ListOf(elem), nil
	case *wit.OwnedHandle:
		return abi.OwnOf(resourceTypeName(k.Type)), nil
	case *wit.BorrowedHandle:
		return abi.BorrowOf(resourceTypeName(k.Type)), nil
	case *wit.Resource:
		// A bare resource type reference (as opposed to an own/borrow
		// handle to it) only ever appears as the Type of a handle; reaching
		// here directly means the wit graph handed us something malformed.
		return abi.Type{}, fmt.Errorf("wadge/component: bare resource type has no standalone schema")
	default:
		return abi.Type{}, fmt.Errorf("wadge/component: unsupported wit.TypeDefKind %T", k)
	}
}

// resourceTypeName derives the identity string abi.Own/abi.Borrow compare
// against from a resource's own TypeDef: its declared name, falling back to
// its position in the type graph if it was declared anonymously.
func resourceTypeName(td *wit.TypeDef) string {
	if td.Name != nil {
		return *td.Name
	}
	return fmt.Sprintf("anon-resource-%p", td)
}

// schemaFromFunction translates a wit.Function's parameter and result lists
// into the codec's flat schema vectors, in declaration order.
func schemaFromFunction(fn *wit.Function) (params, results []abi.Type, err error) {
	params = make([]abi.Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i], err = schemaFromWit(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", p.Name, err)
		}
	}
	results = make([]abi.Type, len(fn.Results))
	for i, r := range fn.Results {
		results[i], err = schemaFromWit(r.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("result %d: %w", i, err)
		}
	}
	return params, results, nil
}

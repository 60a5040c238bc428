package abi

import (
	"context"
	"math"
)

// LiftParam is lift_param (spec.md §4.3): it reads one value out of the
// flattened argument cell vector, where the component ABI widens small
// integers to i32/i64 cells, and returns the cells that remain unconsumed.
func LiftParam(ctx context.Context, mem Memory, table ResourceTable, t Type, cells []uint64) (Value, []uint64, error) {
	need := func(n int) error {
		if len(cells) < n {
			return newError(KindNullArgument, "argument vector has %d cells but %s needs %d", len(cells), t.Kind, n)
		}
		return nil
	}
	switch t.Kind {
	case Bool:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return BoolValue(cells[0] != 0), cells[1:], nil
	case S8:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		v := int32(int32(uint32(cells[0])))
		if v < math.MinInt8 || v > math.MaxInt8 {
			return Value{}, nil, newError(KindIntegerOutOfRange, "%d out of range for s8", v)
		}
		return S8Value(int8(v)), cells[1:], nil
	case U8:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		v := uint32(cells[0])
		if v > math.MaxUint8 {
			return Value{}, nil, newError(KindIntegerOutOfRange, "%d out of range for u8", v)
		}
		return U8Value(uint8(v)), cells[1:], nil
	case S16:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		v := int32(int32(uint32(cells[0])))
		if v < math.MinInt16 || v > math.MaxInt16 {
			return Value{}, nil, newError(KindIntegerOutOfRange, "%d out of range for s16", v)
		}
		return S16Value(int16(v)), cells[1:], nil
	case U16:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		v := uint32(cells[0])
		if v > math.MaxUint16 {
			return Value{}, nil, newError(KindIntegerOutOfRange, "%d out of range for u16", v)
		}
		return U16Value(uint16(v)), cells[1:], nil
	case S32:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return S32Value(int32(uint32(cells[0]))), cells[1:], nil
	case U32:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return U32Value(uint32(cells[0])), cells[1:], nil
	case F32:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return F32Value(math.Float32frombits(uint32(cells[0]))), cells[1:], nil
	case Char:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		r, err := scalarValueRune(uint32(cells[0]))
		if err != nil {
			return Value{}, nil, err
		}
		return CharValue(r), cells[1:], nil
	case S64:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return S64Value(int64(cells[0])), cells[1:], nil
	case U64:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return U64Value(cells[0]), cells[1:], nil
	case F64:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		return F64Value(math.Float64frombits(cells[0])), cells[1:], nil
	case Own, Borrow:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		handle := uint32(cells[0])
		var tok ResourceToken
		var ok bool
		if t.Kind == Own {
			tok, ok = table.Take(handle)
		} else {
			tok, ok = table.Borrow(handle)
		}
		if !ok {
			return Value{}, nil, newError(KindResourceTableMiss, "no resource at handle %d", handle)
		}
		if tok.ResourceType != t.ResourceType {
			return Value{}, nil, newError(KindResourceTypeMismatch, "cannot lift resource of type %q as %q", tok.ResourceType, t.ResourceType)
		}
		if t.Kind == Own {
			return OwnValue(tok), cells[1:], nil
		}
		return BorrowValue(tok), cells[1:], nil
	case String:
		if err := need(2); err != nil {
			return Value{}, nil, err
		}
		return liftStringFromCells(mem, cells)
	case List:
		if err := need(2); err != nil {
			return Value{}, nil, err
		}
		return liftListFromCells(ctx, mem, table, *t.Elem, cells)
	case Record:
		return liftParamRecord(ctx, mem, table, t.Fields, cells)
	case Tuple:
		fields := make([]Field, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = Field{Type: e}
		}
		v, rest, err := liftParamRecord(ctx, mem, table, fields, cells)
		if err != nil {
			return Value{}, nil, err
		}
		v.Kind = Tuple
		return v, rest, nil
	case Variant, Option, Result:
		return liftParamVariant(ctx, mem, table, t, cells)
	case Enum:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		idx := uint32(cells[0])
		if int(idx) >= len(t.Names) {
			return Value{}, nil, newError(KindUnknownDiscriminant, "enum discriminant %d out of range for %d cases", idx, len(t.Names))
		}
		return EnumValue(t.Names[idx]), cells[1:], nil
	case Flags:
		if err := need(1); err != nil {
			return Value{}, nil, err
		}
		bits := cells[0]
		var names []string
		for i, name := range t.Names {
			if bits&(1<<uint(i)) != 0 {
				names = append(names, name)
			}
		}
		return FlagsValue(names...), cells[1:], nil
	default:
		return Value{}, nil, newError(KindUnsupportedSchema, "cannot lift unknown type kind %s", t.Kind)
	}
}

func liftStringFromCells(mem Memory, cells []uint64) (Value, []uint64, error) {
	ptr := uint32(cells[0])
	length := uint32(cells[1])
	if length == 0 {
		return StringValue(""), cells[2:], nil
	}
	buf, ok := mem.Read(ptr, length)
	if !ok {
		return Value{}, nil, newError(KindAllocFailed, "string data out of bounds at offset %d length %d", ptr, length)
	}
	return StringValue(validUTF8(buf)), cells[2:], nil
}

func liftListFromCells(ctx context.Context, mem Memory, table ResourceTable, elem Type, cells []uint64) (Value, []uint64, error) {
	ptr := uint32(cells[0])
	length := uint32(cells[1])
	if length == 0 {
		return ListValue(), cells[2:], nil
	}
	elemLayout, err := LayoutOf(elem)
	if err != nil {
		return Value{}, nil, err
	}
	items := make([]Value, 0, length)
	offset := ptr
	for i := uint32(0); i < length; i++ {
		offset, err = alignUp(offset, elemLayout.Align)
		if err != nil {
			return Value{}, nil, err
		}
		v, next, err := Lift(ctx, mem, table, elem, offset)
		if err != nil {
			return Value{}, nil, Wrap(err, "failed to lift list element %d", i)
		}
		items = append(items, v)
		offset = next
	}
	return ListValue(items...), cells[2:], nil
}

func liftParamRecord(ctx context.Context, mem Memory, table ResourceTable, fields []Field, cells []uint64) (Value, []uint64, error) {
	items := make([]Value, len(fields))
	rest := cells
	for i, f := range fields {
		v, next, err := LiftParam(ctx, mem, table, f.Type, rest)
		if err != nil {
			if f.Name != "" {
				return Value{}, nil, Wrap(err, "failed to lift record field %q", f.Name)
			}
			return Value{}, nil, Wrap(err, "failed to lift tuple element %d", i)
		}
		items[i] = v
		rest = next
	}
	return RecordValue(items...), rest, nil
}

func liftParamVariant(ctx context.Context, mem Memory, table ResourceTable, t Type, cells []uint64) (Value, []uint64, error) {
	cases := variantCasesOf(t)
	layout, err := LayoutOf(t)
	if err != nil {
		return Value{}, nil, err
	}
	if len(cells) < 1 {
		return Value{}, nil, newError(KindNullArgument, "argument vector is empty but %s needs a discriminant cell", t.Kind)
	}
	idx := cells[0]
	if int(idx) >= len(cases) {
		return Value{}, nil, newError(KindUnknownDiscriminant, "%s discriminant %d out of range for %d cases", t.Kind, idx, len(cases))
	}
	joinWidth := layout.FlatArgs - 1
	if len(cells) < 1+joinWidth {
		return Value{}, nil, newError(KindNullArgument, "argument vector has %d cells but %s needs %d", len(cells), t.Kind, 1+joinWidth)
	}
	payloadCells := cells[1 : 1+joinWidth]
	selected := cases[idx]
	var payload *Value
	if selected.Payload != nil {
		v, _, err := LiftParam(ctx, mem, table, *selected.Payload, payloadCells)
		if err != nil {
			return Value{}, nil, Wrap(err, "failed to lift %s case %q payload", t.Kind, selected.Name)
		}
		payload = &v
	}
	return Value{Kind: t.Kind, CaseName: selected.Name, Payload: payload}, cells[1+joinWidth:], nil
}

// LiftParams is the obvious fold of LiftParam over schemas; the returned
// cell slice points at the first result out-pointer cell.
func LiftParams(ctx context.Context, mem Memory, table ResourceTable, schemas []Type, cells []uint64) ([]Value, []uint64, error) {
	values := make([]Value, len(schemas))
	rest := cells
	for i, t := range schemas {
		v, next, err := LiftParam(ctx, mem, table, t, rest)
		if err != nil {
			return nil, nil, Wrap(err, "failed to lift parameter %d", i)
		}
		values[i] = v
		rest = next
	}
	return values, rest, nil
}

package abi

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"
)

// Lift is the structural inverse of Lower (spec.md §4.3): it reads a typed
// value out of mem starting at src and returns the first address past the
// region it consumed.
func Lift(ctx context.Context, mem Memory, table ResourceTable, t Type, src uint32) (Value, uint32, error) {
	switch t.Kind {
	case Bool:
		bits, err := getScalar(mem, src, 1)
		if err != nil {
			return Value{}, 0, err
		}
		if bits != 0 && bits != 1 {
			return Value{}, 0, newError(KindInvalidBool, "bool byte %d is neither 0 nor 1", bits)
		}
		return BoolValue(bits != 0), src + 1, nil
	case S8:
		bits, err := getScalar(mem, src, 1)
		if err != nil {
			return Value{}, 0, err
		}
		return S8Value(int8(bits)), src + 1, nil
	case U8:
		bits, err := getScalar(mem, src, 1)
		if err != nil {
			return Value{}, 0, err
		}
		return U8Value(uint8(bits)), src + 1, nil
	case S16:
		bits, err := getScalar(mem, src, 2)
		if err != nil {
			return Value{}, 0, err
		}
		return S16Value(int16(bits)), src + 2, nil
	case U16:
		bits, err := getScalar(mem, src, 2)
		if err != nil {
			return Value{}, 0, err
		}
		return U16Value(uint16(bits)), src + 2, nil
	case S32:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return S32Value(int32(bits)), src + 4, nil
	case U32:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return U32Value(uint32(bits)), src + 4, nil
	case F32:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return F32Value(math.Float32frombits(uint32(bits))), src + 4, nil
	case Char:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		r, err := scalarValueRune(uint32(bits))
		if err != nil {
			return Value{}, 0, err
		}
		return CharValue(r), src + 4, nil
	case S64:
		bits, err := getScalar(mem, src, 8)
		if err != nil {
			return Value{}, 0, err
		}
		return S64Value(int64(bits)), src + 8, nil
	case U64:
		bits, err := getScalar(mem, src, 8)
		if err != nil {
			return Value{}, 0, err
		}
		return U64Value(bits), src + 8, nil
	case F64:
		bits, err := getScalar(mem, src, 8)
		if err != nil {
			return Value{}, 0, err
		}
		return F64Value(math.Float64frombits(bits)), src + 8, nil
	case String:
		return liftString(mem, src)
	case List:
		return liftList(ctx, mem, table, *t.Elem, src)
	case Record:
		return liftRecord(ctx, mem, table, t.Fields, src)
	case Tuple:
		fields := make([]Field, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = Field{Type: e}
		}
		v, next, err := liftRecord(ctx, mem, table, fields, src)
		if err != nil {
			return Value{}, 0, err
		}
		v.Kind = Tuple
		return v, next, nil
	case Variant, Option, Result:
		return liftVariant(ctx, mem, table, t, src)
	case Enum:
		w, err := discriminantWidth(len(t.Names))
		if err != nil {
			return Value{}, 0, err
		}
		bits, err := getScalar(mem, src, w)
		if err != nil {
			return Value{}, 0, err
		}
		if int(bits) >= len(t.Names) {
			return Value{}, 0, newError(KindUnknownDiscriminant, "enum discriminant %d out of range for %d cases", bits, len(t.Names))
		}
		return EnumValue(t.Names[bits]), src + w, nil
	case Flags:
		w, err := flagsWidth(len(t.Names))
		if err != nil {
			return Value{}, 0, err
		}
		bits, err := getScalar(mem, src, w)
		if err != nil {
			return Value{}, 0, err
		}
		var names []string
		for i, name := range t.Names {
			if bits&(1<<uint(i)) != 0 {
				names = append(names, name)
			}
		}
		return FlagsValue(names...), src + w, nil
	case Own:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		tok, ok := table.Take(uint32(bits))
		if !ok {
			return Value{}, 0, newError(KindResourceTableMiss, "no resource at handle %d", uint32(bits))
		}
		if tok.ResourceType != t.ResourceType {
			return Value{}, 0, newError(KindResourceTypeMismatch, "cannot lift resource of type %q as %q", tok.ResourceType, t.ResourceType)
		}
		return OwnValue(tok), src + 4, nil
	case Borrow:
		bits, err := getScalar(mem, src, 4)
		if err != nil {
			return Value{}, 0, err
		}
		tok, ok := table.Borrow(uint32(bits))
		if !ok {
			return Value{}, 0, newError(KindResourceTableMiss, "no resource at handle %d", uint32(bits))
		}
		if tok.ResourceType != t.ResourceType {
			return Value{}, 0, newError(KindResourceTypeMismatch, "cannot lift resource of type %q as %q", tok.ResourceType, t.ResourceType)
		}
		return BorrowValue(tok), src + 4, nil
	default:
		return Value{}, 0, newError(KindUnsupportedSchema, "cannot lift unknown type kind %s", t.Kind)
	}
}

// scalarValueRune validates that bits is a Unicode scalar value (a valid
// code point that is not a surrogate), the range spec.md §4.3 requires for
// Char, and returns it as a rune.
func scalarValueRune(bits uint32) (rune, error) {
	if bits > utf8.MaxRune || (bits >= 0xD800 && bits <= 0xDFFF) {
		return 0, newError(KindInvalidChar, "0x%x is not a Unicode scalar value", bits)
	}
	return rune(bits), nil
}

func liftString(mem Memory, src uint32) (Value, uint32, error) {
	ptr, err := getScalar(mem, src, pointerSize)
	if err != nil {
		return Value{}, 0, err
	}
	length, err := getScalar(mem, src+pointerSize, pointerSize)
	if err != nil {
		return Value{}, 0, err
	}
	if length == 0 {
		return StringValue(""), src + 2*pointerSize, nil
	}
	buf, ok := mem.Read(uint32(ptr), uint32(length))
	if !ok {
		return Value{}, 0, newError(KindAllocFailed, "string data out of bounds at offset %d length %d", ptr, length)
	}
	return StringValue(validUTF8(buf)), src + 2*pointerSize, nil
}

// validUTF8 decodes buf as UTF-8, replacing any invalid sequence with the
// Unicode replacement character, per spec.md §4.3's lossy lifting rule.
func validUTF8(buf []byte) string {
	s := string(buf)
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

func liftList(ctx context.Context, mem Memory, table ResourceTable, elem Type, src uint32) (Value, uint32, error) {
	ptr, err := getScalar(mem, src, pointerSize)
	if err != nil {
		return Value{}, 0, err
	}
	length, err := getScalar(mem, src+pointerSize, pointerSize)
	if err != nil {
		return Value{}, 0, err
	}
	if length == 0 {
		return ListValue(), src + 2*pointerSize, nil
	}
	elemLayout, err := LayoutOf(elem)
	if err != nil {
		return Value{}, 0, err
	}
	items := make([]Value, 0, length)
	offset := uint32(ptr)
	for i := uint64(0); i < length; i++ {
		offset, err = alignUp(offset, elemLayout.Align)
		if err != nil {
			return Value{}, 0, err
		}
		v, next, err := Lift(ctx, mem, table, elem, offset)
		if err != nil {
			return Value{}, 0, Wrap(err, "failed to lift list element %d", i)
		}
		items = append(items, v)
		offset = next
	}
	return ListValue(items...), src + 2*pointerSize, nil
}

func liftRecord(ctx context.Context, mem Memory, table ResourceTable, fields []Field, src uint32) (Value, uint32, error) {
	offset := src
	items := make([]Value, len(fields))
	for i, f := range fields {
		fl, err := LayoutOf(f.Type)
		if err != nil {
			return Value{}, 0, err
		}
		offset, err = alignUp(offset, fl.Align)
		if err != nil {
			return Value{}, 0, err
		}
		v, next, err := Lift(ctx, mem, table, f.Type, offset)
		if err != nil {
			if f.Name != "" {
				return Value{}, 0, Wrap(err, "failed to lift record field %q", f.Name)
			}
			return Value{}, 0, Wrap(err, "failed to lift tuple element %d", i)
		}
		items[i] = v
		offset = next
	}
	rl, err := recordLayout(fields)
	if err != nil {
		return Value{}, 0, err
	}
	end, err := alignUp(offset, rl.Align)
	if err != nil {
		return Value{}, 0, err
	}
	return RecordValue(items...), end, nil
}

func liftVariant(ctx context.Context, mem Memory, table ResourceTable, t Type, src uint32) (Value, uint32, error) {
	cases := variantCasesOf(t)
	layout, err := LayoutOf(t)
	if err != nil {
		return Value{}, 0, err
	}
	discWidth, err := discriminantWidth(len(cases))
	if err != nil {
		return Value{}, 0, err
	}
	bits, err := getScalar(mem, src, discWidth)
	if err != nil {
		return Value{}, 0, err
	}
	if int(bits) >= len(cases) {
		return Value{}, 0, newError(KindUnknownDiscriminant, "%s discriminant %d out of range for %d cases", t.Kind, bits, len(cases))
	}
	selected := cases[bits]
	var payload *Value
	if selected.Payload != nil {
		maxAlign, err := maxCaseAlignOf(cases)
		if err != nil {
			return Value{}, 0, err
		}
		payloadOffset, err := alignUp(src+discWidth, maxAlign)
		if err != nil {
			return Value{}, 0, err
		}
		v, _, err := Lift(ctx, mem, table, *selected.Payload, payloadOffset)
		if err != nil {
			return Value{}, 0, Wrap(err, "failed to lift %s case %q payload", t.Kind, selected.Name)
		}
		payload = &v
	}
	return Value{Kind: t.Kind, CaseName: selected.Name, Payload: payload}, src + layout.Size, nil
}

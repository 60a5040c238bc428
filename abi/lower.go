package abi

import (
	"context"
	"encoding/binary"
	"math"
)

// putScalar little-endian-encodes the low size bytes of bits and writes them
// at dst. size must be 1, 2, 4, or 8.
func putScalar(mem Memory, dst uint32, size uint32, bits uint64) error {
	buf := make([]byte, size)
	switch size {
	case 1:
		buf[0] = byte(bits)
	case 2:
		binary.LittleEndian.PutUint16(buf, uint16(bits))
	case 4:
		binary.LittleEndian.PutUint32(buf, uint32(bits))
	case 8:
		binary.LittleEndian.PutUint64(buf, bits)
	}
	if !mem.Write(dst, buf) {
		return newError(KindAllocFailed, "write of %d bytes at offset %d is out of bounds", size, dst)
	}
	return nil
}

func getScalar(mem Memory, src uint32, size uint32) (uint64, error) {
	buf, ok := mem.Read(src, size)
	if !ok {
		return 0, newError(KindAllocFailed, "read of %d bytes at offset %d is out of bounds", size, src)
	}
	switch size {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf)), nil
	case 8:
		return binary.LittleEndian.Uint64(buf), nil
	}
	return 0, nil
}

// Lower is the Lowering Codec (spec.md §4.2): it writes value into mem
// starting at dst, which the caller guarantees is at least size_of(t) bytes
// and aligned to align_of(t). It returns the first address past the written
// region, so aggregate callers can chain field-by-field.
func Lower(ctx context.Context, mem Memory, alloc Allocator, table ResourceTable, t Type, value Value, dst uint32) (uint32, error) {
	if value.Kind != t.Kind {
		return 0, newError(KindTypeMismatch, "cannot lower %s value as %s schema", value.Kind, t.Kind)
	}
	switch t.Kind {
	case Bool:
		bit := uint64(0)
		if value.Bool {
			bit = 1
		}
		if err := putScalar(mem, dst, 1, bit); err != nil {
			return 0, err
		}
		return dst + 1, nil
	case S8:
		if err := putScalar(mem, dst, 1, uint64(uint8(value.I8))); err != nil {
			return 0, err
		}
		return dst + 1, nil
	case U8:
		if err := putScalar(mem, dst, 1, uint64(value.U8)); err != nil {
			return 0, err
		}
		return dst + 1, nil
	case S16:
		if err := putScalar(mem, dst, 2, uint64(uint16(value.I16))); err != nil {
			return 0, err
		}
		return dst + 2, nil
	case U16:
		if err := putScalar(mem, dst, 2, uint64(value.U16)); err != nil {
			return 0, err
		}
		return dst + 2, nil
	case S32:
		if err := putScalar(mem, dst, 4, uint64(uint32(value.I32))); err != nil {
			return 0, err
		}
		return dst + 4, nil
	case U32:
		if err := putScalar(mem, dst, 4, uint64(value.U32)); err != nil {
			return 0, err
		}
		return dst + 4, nil
	case F32:
		if err := putScalar(mem, dst, 4, uint64(math.Float32bits(value.F32))); err != nil {
			return 0, err
		}
		return dst + 4, nil
	case Char:
		if err := putScalar(mem, dst, 4, uint64(uint32(value.Char))); err != nil {
			return 0, err
		}
		return dst + 4, nil
	case S64:
		if err := putScalar(mem, dst, 8, uint64(value.I64)); err != nil {
			return 0, err
		}
		return dst + 8, nil
	case U64:
		if err := putScalar(mem, dst, 8, value.U64); err != nil {
			return 0, err
		}
		return dst + 8, nil
	case F64:
		if err := putScalar(mem, dst, 8, math.Float64bits(value.F64)); err != nil {
			return 0, err
		}
		return dst + 8, nil
	case String:
		return lowerString(ctx, mem, alloc, value.Str, dst)
	case List:
		return lowerList(ctx, mem, alloc, table, *t.Elem, value.Items, dst)
	case Record:
		return lowerRecord(ctx, mem, alloc, table, t.Fields, value.Items, dst)
	case Tuple:
		fields := make([]Field, len(t.Elems))
		for i, e := range t.Elems {
			fields[i] = Field{Type: e}
		}
		return lowerRecord(ctx, mem, alloc, table, fields, value.Items, dst)
	case Variant, Option, Result:
		return lowerVariant(ctx, mem, alloc, table, t, value, dst)
	case Enum:
		idx, ok := caseIndex(t.Names, value.CaseName)
		if !ok {
			return 0, newError(KindUnknownDiscriminant, "unknown enum case %q", value.CaseName)
		}
		w, err := discriminantWidth(len(t.Names))
		if err != nil {
			return 0, err
		}
		if err := putScalar(mem, dst, w, uint64(idx)); err != nil {
			return 0, err
		}
		return dst + w, nil
	case Flags:
		w, err := flagsWidth(len(t.Names))
		if err != nil {
			return 0, err
		}
		var bitmap uint64
		for _, name := range value.Flags {
			idx, ok := caseIndex(t.Names, name)
			if !ok {
				return 0, newError(KindUnknownDiscriminant, "unknown flag %q", name)
			}
			bitmap |= 1 << uint(idx)
		}
		if err := putScalar(mem, dst, w, bitmap); err != nil {
			return 0, err
		}
		return dst + w, nil
	case Own, Borrow:
		if value.Resource.ResourceType != t.ResourceType {
			return 0, newError(KindResourceTypeMismatch, "cannot lower resource of type %q as %q", value.Resource.ResourceType, t.ResourceType)
		}
		handle := table.New(value.Resource)
		if err := putScalar(mem, dst, 4, uint64(handle)); err != nil {
			return 0, err
		}
		return dst + 4, nil
	default:
		return 0, newError(KindUnsupportedSchema, "cannot lower unknown type kind %s", t.Kind)
	}
}

func lowerString(ctx context.Context, mem Memory, alloc Allocator, s string, dst uint32) (uint32, error) {
	data := []byte(s)
	var ptr uint32
	if len(data) > 0 {
		var err error
		ptr, err = alloc.Realloc(ctx, 0, 0, 1, uint32(len(data)))
		if err != nil {
			return 0, Wrap(err, "failed to allocate %d bytes for string", len(data))
		}
		if !mem.Write(ptr, data) {
			return 0, newError(KindAllocFailed, "write of string bytes at offset %d is out of bounds", ptr)
		}
	}
	if err := putScalar(mem, dst, pointerSize, uint64(ptr)); err != nil {
		return 0, err
	}
	if err := putScalar(mem, dst+pointerSize, pointerSize, uint64(len(data))); err != nil {
		return 0, err
	}
	return dst + 2*pointerSize, nil
}

func lowerList(ctx context.Context, mem Memory, alloc Allocator, table ResourceTable, elem Type, items []Value, dst uint32) (uint32, error) {
	elemLayout, err := LayoutOf(elem)
	if err != nil {
		return 0, Wrap(err, "failed to lay out list element type")
	}
	var ptr uint32
	if len(items) > 0 {
		total, err := mulChecked(elemLayout.Size, len(items))
		if err != nil {
			return 0, err
		}
		ptr, err = alloc.Realloc(ctx, 0, 0, elemLayout.Align, total)
		if err != nil {
			return 0, Wrap(err, "failed to allocate %d bytes for list", total)
		}
		offset := ptr
		for i, item := range items {
			next, err := Lower(ctx, mem, alloc, table, elem, item, offset)
			if err != nil {
				return 0, Wrap(err, "failed to lower list element %d", i)
			}
			offset = next
		}
	}
	if err := putScalar(mem, dst, pointerSize, uint64(ptr)); err != nil {
		return 0, err
	}
	if err := putScalar(mem, dst+pointerSize, pointerSize, uint64(len(items))); err != nil {
		return 0, err
	}
	return dst + 2*pointerSize, nil
}

func lowerRecord(ctx context.Context, mem Memory, alloc Allocator, table ResourceTable, fields []Field, items []Value, dst uint32) (uint32, error) {
	if len(items) != len(fields) {
		return 0, newError(KindTypeMismatch, "record/tuple has %d fields but value has %d members", len(fields), len(items))
	}
	offset := dst
	for i, f := range fields {
		fl, err := LayoutOf(f.Type)
		if err != nil {
			return 0, err
		}
		offset, err = alignUp(offset, fl.Align)
		if err != nil {
			return 0, err
		}
		next, err := Lower(ctx, mem, alloc, table, f.Type, items[i], offset)
		if err != nil {
			if f.Name != "" {
				return 0, Wrap(err, "failed to lower record field %q", f.Name)
			}
			return 0, Wrap(err, "failed to lower tuple element %d", i)
		}
		offset = next
	}
	rl, err := recordLayout(fields)
	if err != nil {
		return 0, err
	}
	end, err := alignUp(offset, rl.Align)
	if err != nil {
		return 0, err
	}
	return end, nil
}

func lowerVariant(ctx context.Context, mem Memory, alloc Allocator, table ResourceTable, t Type, value Value, dst uint32) (uint32, error) {
	cases := variantCasesOf(t)
	idx, ok := caseIndex(caseNames(cases), value.CaseName)
	if !ok {
		return 0, newError(KindUnknownDiscriminant, "unknown %s case %q", t.Kind, value.CaseName)
	}
	layout, err := LayoutOf(t)
	if err != nil {
		return 0, err
	}
	discWidth, err := discriminantWidth(len(cases))
	if err != nil {
		return 0, err
	}
	if err := putScalar(mem, dst, discWidth, uint64(idx)); err != nil {
		return 0, err
	}
	if payload := cases[idx].Payload; payload != nil {
		maxAlign, err := maxCaseAlignOf(cases)
		if err != nil {
			return 0, err
		}
		payloadOffset, err := alignUp(dst+discWidth, maxAlign)
		if err != nil {
			return 0, err
		}
		if value.Payload == nil {
			return 0, newError(KindTypeMismatch, "%s case %q requires a payload", t.Kind, value.CaseName)
		}
		if _, err := Lower(ctx, mem, alloc, table, *payload, *value.Payload, payloadOffset); err != nil {
			return 0, Wrap(err, "failed to lower %s case %q payload", t.Kind, value.CaseName)
		}
	}
	return dst + layout.Size, nil
}

func caseNames(cases []Case) []string {
	names := make([]string, len(cases))
	for i, c := range cases {
		names[i] = c.Name
	}
	return names
}

// LowerResults implements lower_results: for each (value, schema) pair it
// pops the next pointer cell from argVec, treats it as a destination
// address, and lowers the value into it.
func LowerResults(ctx context.Context, mem Memory, alloc Allocator, table ResourceTable, values []Value, schemas []Type, argVec []uint32) error {
	if len(values) != len(schemas) {
		return newError(KindTypeMismatch, "%d result values but %d result schemas", len(values), len(schemas))
	}
	if len(values) == 0 {
		return nil
	}
	if len(argVec) < len(values) {
		return newError(KindNullArgument, "result out-pointer vector has %d cells but %d results are expected", len(argVec), len(values))
	}
	for i, v := range values {
		if _, err := Lower(ctx, mem, alloc, table, schemas[i], v, argVec[i]); err != nil {
			return Wrap(err, "failed to lower result %d", i)
		}
	}
	return nil
}

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutPrimitives(t *testing.T) {
	var testTable = []struct {
		ty    Type
		size  uint32
		align uint32
		flat  int
	}{
		{Prim(Bool), 1, 1, 1},
		{Prim(S8), 1, 1, 1},
		{Prim(U8), 1, 1, 1},
		{Prim(S16), 2, 2, 1},
		{Prim(U16), 2, 2, 1},
		{Prim(S32), 4, 4, 1},
		{Prim(U32), 4, 4, 1},
		{Prim(F32), 4, 4, 1},
		{Prim(Char), 4, 4, 1},
		{Prim(S64), 8, 8, 1},
		{Prim(U64), 8, 8, 1},
		{Prim(F64), 8, 8, 1},
		{Prim(String), 8, 4, 2},
		{ListOf(Prim(U16)), 8, 4, 2},
	}
	for _, tt := range testTable {
		lay, err := LayoutOf(tt.ty)
		assert.NoError(t, err)
		assert.Equal(t, tt.size, lay.Size, tt.ty.Kind.String())
		assert.Equal(t, tt.align, lay.Align, tt.ty.Kind.String())
		assert.Equal(t, tt.flat, lay.FlatArgs, tt.ty.Kind.String())
	}
}

func TestLayoutRecordPadding(t *testing.T) {
	// {u8, u32, u16}: u8 at 0, pad to 4 for u32 at 4, u16 at 8, size rounds
	// up to the record's own alignment of 4 -> 12.
	rec := RecordOf(
		Field{Name: "a", Type: Prim(U8)},
		Field{Name: "b", Type: Prim(U32)},
		Field{Name: "c", Type: Prim(U16)},
	)
	lay, err := LayoutOf(rec)
	assert.NoError(t, err)
	assert.EqualValues(t, 4, lay.Align)
	assert.EqualValues(t, 12, lay.Size)
	assert.Equal(t, 3, lay.FlatArgs)
}

func TestLayoutDiscriminantWidths(t *testing.T) {
	w, err := discriminantWidth(3)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, w)

	w, err = discriminantWidth(255)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, w)

	w, err = discriminantWidth(256)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, w)

	w, err = discriminantWidth(65535)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, w)

	w, err = discriminantWidth(65536)
	assert.NoError(t, err)
	assert.EqualValues(t, 4, w)
}

func TestLayoutVariant(t *testing.T) {
	u32 := Prim(U32)
	v := VariantOf(
		Case{Name: "A"},
		Case{Name: "B", Payload: &u32},
	)
	lay, err := LayoutOf(v)
	assert.NoError(t, err)
	// discriminant (1 byte) padded to 4 for the u32 payload, then 4 bytes
	// of payload, rounded to the overall alignment of 4.
	assert.EqualValues(t, 8, lay.Size)
	assert.EqualValues(t, 4, lay.Align)
	assert.Equal(t, 2, lay.FlatArgs)
}

func TestLayoutFlagsCap(t *testing.T) {
	names := make([]string, 32)
	for i := range names {
		names[i] = string(rune('a' + i%26))
	}
	lay, err := LayoutOf(FlagsOf(names...))
	assert.NoError(t, err)
	assert.EqualValues(t, 4, lay.Size)

	_, err = LayoutOf(FlagsOf(append(names, "overflow")...))
	assert.Error(t, err)
	ae, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindUnsupportedSchema, ae.Kind)
}

func TestLayoutSchemaTooLarge(t *testing.T) {
	_, err := discriminantWidth(1 << 33)
	assert.Error(t, err)
	ae, ok := AsError(err)
	assert.True(t, ok)
	assert.Equal(t, KindSchemaTooLarge, ae.Kind)
}

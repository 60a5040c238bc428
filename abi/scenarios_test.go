package abi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioIdentityBool(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	dst, err := heap.Realloc(context.Background(), 0, 0, 1, 1)
	require.NoError(t, err)

	_, err = Lower(context.Background(), heap, heap, table, Prim(Bool), BoolValue(true), dst)
	require.NoError(t, err)

	buf, ok := heap.Read(dst, 1)
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, buf)

	got, _, err := Lift(context.Background(), heap, table, Prim(Bool), dst)
	require.NoError(t, err)
	assert.True(t, got.Bool)
}

func TestScenarioIdentityString(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()

	input := []byte{0x68, 0xC3, 0xA9, 0x6C, 0x6C, 0x6F} // "héllo"
	ptr, err := heap.Realloc(context.Background(), 0, 0, 1, uint32(len(input)))
	require.NoError(t, err)
	require.True(t, heap.Write(ptr, input))

	cells := []uint64{uint64(ptr), uint64(len(input))}
	v, rest, err := LiftParam(context.Background(), heap, table, Prim(String), cells)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "héllo", v.Str)

	dst, err := heap.Realloc(context.Background(), 0, 0, 4, 8)
	require.NoError(t, err)
	_, err = Lower(context.Background(), heap, heap, table, Prim(String), v, dst)
	require.NoError(t, err)

	newPtr, err := getScalar(heap, dst, pointerSize)
	require.NoError(t, err)
	newLen, err := getScalar(heap, dst+pointerSize, pointerSize)
	require.NoError(t, err)
	assert.EqualValues(t, len(input), newLen)
	outBytes, ok := heap.Read(uint32(newPtr), uint32(newLen))
	require.True(t, ok)
	assert.Equal(t, input, outBytes)
}

func TestScenarioIdentityListU16(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	ty := ListOf(Prim(U16))
	in := ListValue(U16Value(1), U16Value(2), U16Value(3))

	dst, err := heap.Realloc(context.Background(), 0, 0, 4, 8)
	require.NoError(t, err)
	_, err = Lower(context.Background(), heap, heap, table, ty, in, dst)
	require.NoError(t, err)

	ptr, err := getScalar(heap, dst, pointerSize)
	require.NoError(t, err)
	length, err := getScalar(heap, dst+pointerSize, pointerSize)
	require.NoError(t, err)
	assert.EqualValues(t, 3, length)

	data, ok := heap.Read(uint32(ptr), 6)
	require.True(t, ok)
	assert.Len(t, data, 6)

	got, _, err := Lift(context.Background(), heap, table, ty, dst)
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	assert.EqualValues(t, 1, got.Items[0].U16)
	assert.EqualValues(t, 2, got.Items[1].U16)
	assert.EqualValues(t, 3, got.Items[2].U16)
}

func TestScenarioIdentityVariant(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	u32 := Prim(U32)
	ty := VariantOf(Case{Name: "A"}, Case{Name: "B", Payload: &u32})

	payload := U32Value(42)
	v := VariantValue("B", &payload)

	lay, err := LayoutOf(ty)
	require.NoError(t, err)
	dst, err := heap.Realloc(context.Background(), 0, 0, lay.Align, lay.Size)
	require.NoError(t, err)

	_, err = Lower(context.Background(), heap, heap, table, ty, v, dst)
	require.NoError(t, err)

	buf, ok := heap.Read(dst, lay.Size)
	require.True(t, ok)
	// discriminant 1 (case B) in byte 0, padded to offset 4, then 0x2A little-endian.
	assert.Equal(t, byte(0x01), buf[0])
	assert.Equal(t, []byte{0x2A, 0x00, 0x00, 0x00}, buf[4:8])

	got, _, err := Lift(context.Background(), heap, table, ty, dst)
	require.NoError(t, err)
	assert.Equal(t, "B", got.CaseName)
	assert.EqualValues(t, 42, got.Payload.U32)
}

func TestScenarioIdentityFlags(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	ty := FlagsOf("A", "B", "C", "D")
	v := FlagsValue("A", "C")

	dst, err := heap.Realloc(context.Background(), 0, 0, 1, 1)
	require.NoError(t, err)
	_, err = Lower(context.Background(), heap, heap, table, ty, v, dst)
	require.NoError(t, err)

	buf, ok := heap.Read(dst, 1)
	require.True(t, ok)
	assert.Equal(t, byte(0b0000_0101), buf[0])

	got, _, err := Lift(context.Background(), heap, table, ty, dst)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "C"}, got.Flags)
}

func TestScenarioIdentityRecordPrimitives(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	rec := RecordOf(
		Field{Name: "u8", Type: Prim(U8)},
		Field{Name: "u16", Type: Prim(U16)},
		Field{Name: "u32", Type: Prim(U32)},
		Field{Name: "s64", Type: Prim(S64)},
		Field{Name: "f32", Type: Prim(F32)},
		Field{Name: "bool", Type: Prim(Bool)},
		Field{Name: "char", Type: Prim(Char)},
		Field{Name: "string", Type: Prim(String)},
	)
	v := RecordValue(
		U8Value(1), U16Value(2), U32Value(3), S64Value(-4),
		F32Value(5.0), BoolValue(true), CharValue('x'), StringValue("s"),
	)

	lay, err := LayoutOf(rec)
	require.NoError(t, err)
	dst, err := heap.Realloc(context.Background(), 0, 0, lay.Align, lay.Size)
	require.NoError(t, err)

	_, err = Lower(context.Background(), heap, heap, table, rec, v, dst)
	require.NoError(t, err)

	got, _, err := Lift(context.Background(), heap, table, rec, dst)
	require.NoError(t, err)
	require.Len(t, got.Items, 8)
	assert.EqualValues(t, 1, got.Items[0].U8)
	assert.EqualValues(t, 2, got.Items[1].U16)
	assert.EqualValues(t, 3, got.Items[2].U32)
	assert.EqualValues(t, -4, got.Items[3].I64)
	assert.EqualValues(t, 5.0, got.Items[4].F32)
	assert.True(t, got.Items[5].Bool)
	assert.Equal(t, 'x', got.Items[6].Char)
	assert.Equal(t, "s", got.Items[7].Str)
}

func TestScenarioResourceDrop(t *testing.T) {
	table := NewInProcessResourceTable()
	handle := table.New(ResourceToken{ResourceType: "res", Data: 7})

	ok := table.Drop(handle)
	assert.True(t, ok)

	ok = table.Drop(handle)
	assert.False(t, ok, "second drop of the same representation must report miss")

	_, found := table.Take(handle)
	assert.False(t, found)
}

func TestNegativeSurrogateChar(t *testing.T) {
	_, err := scalarValueRune(0xD800)
	require.Error(t, err)
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalidChar, ae.Kind)
}

func TestNegativeU8OutOfRange(t *testing.T) {
	heap := NewHeap()
	table := NewInProcessResourceTable()
	_, _, err := LiftParam(context.Background(), heap, table, Prim(U8), []uint64{0x100})
	require.Error(t, err)
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindIntegerOutOfRange, ae.Kind)
}

func TestNegativeFlagsOverflow(t *testing.T) {
	names := make([]string, 33)
	for i := range names {
		names[i] = string(rune('a' + i))
	}
	_, err := LayoutOf(FlagsOf(names...))
	require.Error(t, err)
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindUnsupportedSchema, ae.Kind)
}

func TestNegativeVariantSchemaTooLarge(t *testing.T) {
	_, err := discriminantWidth(int(maxDiscriminants) + 1)
	require.Error(t, err)
	ae, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindSchemaTooLarge, ae.Kind)
}

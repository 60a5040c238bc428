package abi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip lowers v under t into a fresh heap, then lifts it back, asserting
// the lift/lower round-trip law (spec.md §8 property 1) along with the exact
// byte-count properties (2 and 3).
func roundTrip(t *testing.T, ty Type, v Value) Value {
	t.Helper()
	heap := NewHeap()
	table := NewInProcessResourceTable()
	lay, err := LayoutOf(ty)
	require.NoError(t, err)

	dst, err := heap.Realloc(context.Background(), 0, 0, lay.Align, lay.Size)
	require.NoError(t, err)

	next, err := Lower(context.Background(), heap, heap, table, ty, v, dst)
	require.NoError(t, err)
	assert.Equal(t, dst+lay.Size, next, "lower must advance exactly size_of(T)")

	got, liftNext, err := Lift(context.Background(), heap, table, ty, dst)
	require.NoError(t, err)
	assert.Equal(t, dst+lay.Size, liftNext, "lift must consume exactly size_of(T)")
	return got
}

func TestRoundTripPrimitives(t *testing.T) {
	assert.Equal(t, BoolValue(true), roundTrip(t, Prim(Bool), BoolValue(true)))
	assert.Equal(t, S8Value(-12), roundTrip(t, Prim(S8), S8Value(-12)))
	assert.Equal(t, U8Value(200), roundTrip(t, Prim(U8), U8Value(200)))
	assert.Equal(t, S16Value(-1000), roundTrip(t, Prim(S16), S16Value(-1000)))
	assert.Equal(t, U32Value(0xdeadbeef), roundTrip(t, Prim(U32), U32Value(0xdeadbeef)))
	assert.Equal(t, S64Value(-9000000000), roundTrip(t, Prim(S64), S64Value(-9000000000)))
	assert.Equal(t, F32Value(3.5), roundTrip(t, Prim(F32), F32Value(3.5)))
	assert.Equal(t, F64Value(2.25), roundTrip(t, Prim(F64), F64Value(2.25)))
	assert.Equal(t, CharValue('x'), roundTrip(t, Prim(Char), CharValue('x')))
}

func TestRoundTripString(t *testing.T) {
	got := roundTrip(t, Prim(String), StringValue("héllo"))
	assert.Equal(t, "héllo", got.Str)
}

func TestRoundTripEmptyStringAndList(t *testing.T) {
	got := roundTrip(t, Prim(String), StringValue(""))
	assert.Equal(t, "", got.Str)

	got = roundTrip(t, ListOf(Prim(U16)), ListValue())
	assert.Empty(t, got.Items)
}

func TestRoundTripListU16(t *testing.T) {
	in := ListValue(U16Value(1), U16Value(2), U16Value(3))
	got := roundTrip(t, ListOf(Prim(U16)), in)
	require.Len(t, got.Items, 3)
	assert.EqualValues(t, 1, got.Items[0].U16)
	assert.EqualValues(t, 2, got.Items[1].U16)
	assert.EqualValues(t, 3, got.Items[2].U16)
}

func TestRoundTripRecord(t *testing.T) {
	rec := RecordOf(
		Field{Name: "a", Type: Prim(U8)},
		Field{Name: "b", Type: Prim(U32)},
		Field{Name: "c", Type: Prim(String)},
	)
	in := RecordValue(U8Value(9), U32Value(77), StringValue("tail"))
	got := roundTrip(t, rec, in)
	require.Len(t, got.Items, 3)
	assert.EqualValues(t, 9, got.Items[0].U8)
	assert.EqualValues(t, 77, got.Items[1].U32)
	assert.Equal(t, "tail", got.Items[2].Str)
}

func TestRoundTripNestedList(t *testing.T) {
	inner := ListOf(Prim(U8))
	outer := ListOf(inner)
	in := ListValue(
		ListValue(U8Value(1), U8Value(2)),
		ListValue(),
		ListValue(U8Value(9)),
	)
	got := roundTrip(t, outer, in)
	require.Len(t, got.Items, 3)
	assert.Len(t, got.Items[0].Items, 2)
	assert.Empty(t, got.Items[1].Items)
	assert.Len(t, got.Items[2].Items, 1)
}

func TestRoundTripVariant(t *testing.T) {
	u32 := Prim(U32)
	str := Prim(String)
	ty := VariantOf(
		Case{Name: "A"},
		Case{Name: "B", Payload: &u32},
		Case{Name: "C", Payload: &str},
	)
	payload := U32Value(42)
	got := roundTrip(t, ty, VariantValue("B", &payload))
	assert.Equal(t, "B", got.CaseName)
	require.NotNil(t, got.Payload)
	assert.EqualValues(t, 42, got.Payload.U32)

	got = roundTrip(t, ty, VariantValue("A", nil))
	assert.Equal(t, "A", got.CaseName)
	assert.Nil(t, got.Payload)
}

func TestRoundTripOptionResult(t *testing.T) {
	inner := Prim(U32)
	ty := OptionOf(inner)
	v := U32Value(5)
	got := roundTrip(t, ty, SomeValue(v))
	assert.Equal(t, "some", got.CaseName)
	assert.EqualValues(t, 5, got.Payload.U32)

	got = roundTrip(t, ty, NoneValue())
	assert.Equal(t, "none", got.CaseName)

	errTy := Prim(String)
	rty := ResultOf(&inner, &errTy)
	ok := U32Value(1)
	got = roundTrip(t, rty, OkValue(&ok))
	assert.Equal(t, "ok", got.CaseName)
	assert.EqualValues(t, 1, got.Payload.U32)
}

func TestRoundTripEnum(t *testing.T) {
	ty := EnumOf("red", "green", "blue")
	got := roundTrip(t, ty, EnumValue("green"))
	assert.Equal(t, "green", got.CaseName)
}

func TestRoundTripFlags(t *testing.T) {
	ty := FlagsOf("A", "B", "C", "D")
	got := roundTrip(t, ty, FlagsValue("A", "C"))
	assert.ElementsMatch(t, []string{"A", "C"}, got.Flags)
}

func TestAlignDividesSize(t *testing.T) {
	types := []Type{
		Prim(Bool), Prim(S16), Prim(U64), Prim(String),
		RecordOf(Field{Name: "a", Type: Prim(U8)}, Field{Name: "b", Type: Prim(U64)}),
		VariantOf(Case{Name: "x"}, Case{Name: "y", Payload: func() *Type { t := Prim(U64); return &t }()}),
		EnumOf("a", "b"),
		FlagsOf("a", "b", "c"),
	}
	for _, ty := range types {
		lay, err := LayoutOf(ty)
		require.NoError(t, err)
		assert.Zero(t, lay.Size%lay.Align, "%s: size %d not a multiple of align %d", ty.Kind, lay.Size, lay.Align)
	}
}

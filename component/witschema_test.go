package component

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.bytecodealliance.org/wit"

	"github.com/wasmCloud/wadge/abi"
)

func TestSchemaFromWitPrimitives(t *testing.T) {
	got, err := schemaFromWit(wit.U32{})
	require.NoError(t, err)
	assert.Equal(t, abi.U32, got.Kind)

	got, err = schemaFromWit(wit.String{})
	require.NoError(t, err)
	assert.Equal(t, abi.String, got.Kind)
}

func TestSchemaFromWitRecord(t *testing.T) {
	rec := &wit.TypeDef{
		Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "x", Type: wit.U32{}},
				{Name: "y", Type: wit.String{}},
			},
		},
	}
	got, err := schemaFromWit(rec)
	require.NoError(t, err)
	require.Equal(t, abi.Record, got.Kind)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "x", got.Fields[0].Name)
	assert.Equal(t, abi.U32, got.Fields[0].Type.Kind)
	assert.Equal(t, "y", got.Fields[1].Name)
	assert.Equal(t, abi.String, got.Fields[1].Type.Kind)
}

func TestSchemaFromWitVariantAndOption(t *testing.T) {
	variant := &wit.TypeDef{
		Kind: &wit.Variant{
			Cases: []wit.Case{
				{Name: "a"},
				{Name: "b", Type: wit.U32{}},
			},
		},
	}
	got, err := schemaFromWit(variant)
	require.NoError(t, err)
	require.Equal(t, abi.Variant, got.Kind)
	require.Len(t, got.Cases, 2)
	assert.Nil(t, got.Cases[0].Payload)
	require.NotNil(t, got.Cases[1].Payload)
	assert.Equal(t, abi.U32, got.Cases[1].Payload.Kind)

	option := &wit.TypeDef{Kind: &wit.Option{Type: wit.Bool{}}}
	got, err = schemaFromWit(option)
	require.NoError(t, err)
	assert.Equal(t, abi.Option, got.Kind)
	assert.Equal(t, abi.Bool, got.Elem.Kind)
}

func TestSchemaFromWitFlagsAndEnum(t *testing.T) {
	flags := &wit.TypeDef{Kind: &wit.Flags{Flags: []wit.Flag{{Name: "a"}, {Name: "b"}}}}
	got, err := schemaFromWit(flags)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Names)

	enum := &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "red"}, {Name: "blue"}}}}
	got, err = schemaFromWit(enum)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "blue"}, got.Names)
}

func TestSchemaFromWitList(t *testing.T) {
	list := &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
	got, err := schemaFromWit(list)
	require.NoError(t, err)
	assert.Equal(t, abi.List, got.Kind)
	assert.Equal(t, abi.U8, got.Elem.Kind)
}

func TestSchemaFromFunction(t *testing.T) {
	fn := &wit.Function{
		Name: "do-thing",
		Params: []wit.Param{
			{Name: "a", Type: wit.U32{}},
		},
		Results: []wit.Param{
			{Type: wit.String{}},
		},
	}
	params, results, err := schemaFromFunction(fn)
	require.NoError(t, err)
	require.Len(t, params, 1)
	assert.Equal(t, abi.U32, params[0].Kind)
	require.Len(t, results, 1)
	assert.Equal(t, abi.String, results[0].Kind)
}

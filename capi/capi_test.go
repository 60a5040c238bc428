package capi

/*
#include <stdlib.h>
*/
import "C"

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLifecycleIdentityBool(t *testing.T) {
	ptr := instance_new(C.wadge_config_t{})
	require.NotNil(t, ptr)
	defer instance_free(ptr)

	resultOffset := arena_alloc(ptr, 1, 1)
	require.NotZero(t, resultOffset)

	cells := []unsafe.Pointer{
		unsafe.Pointer(uintptr(1)), // bool true
		unsafe.Pointer(uintptr(resultOffset)),
	}

	cIface := C.CString("")
	cName := C.CString("identity-bool")
	defer C.free(unsafe.Pointer(cIface))
	defer C.free(unsafe.Pointer(cName))

	ok := instance_call(ptr, cIface, cName, &cells[0])
	require.True(t, bool(ok))

	var out [1]byte
	n := arena_read(ptr, resultOffset, 1, (*C.uint8_t)(unsafe.Pointer(&out[0])), 1)
	require.EqualValues(t, 1, n)
	assert.Equal(t, byte(1), out[0])
}

func TestInstanceCallExportNotFound(t *testing.T) {
	ptr := instance_new(C.wadge_config_t{})
	require.NotNil(t, ptr)
	defer instance_free(ptr)

	cIface := C.CString("")
	cName := C.CString("no-such-export")
	defer C.free(unsafe.Pointer(cIface))
	defer C.free(unsafe.Pointer(cName))

	ok := instance_call(ptr, cIface, cName, nil)
	require.False(t, bool(ok))
	assert.NotZero(t, error_len())

	buf := make([]byte, 256)
	n := error_take((*C.uint8_t)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
	assert.Greater(t, int(n), 0)
	assert.Zero(t, error_len(), "error_take must drain the slot")
}

func TestInstanceNewWithExplicitConfig(t *testing.T) {
	wasm := []byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x01, 0x00}
	cfg := C.wadge_config_t{
		wasm: C.wadge_bytes_t{
			ptr: (*C.uint8_t)(unsafe.Pointer(&wasm[0])),
			len: C.size_t(len(wasm)),
		},
	}
	ptr := instance_new(cfg)
	require.NotNil(t, ptr)
	instance_free(ptr)
}

// The six entry points below are the C ABI Surface (spec.md §4.6):
// default_config, instance_new, instance_free, instance_call, error_len,
// error_take. arena_capi.go exports three more (arena_alloc, arena_write,
// arena_read). cmd/wadge-header reflects over the package's //export
// comments to produce include/wadge.h.
package capi

/*
#include <stdint.h>
#include <stddef.h>
#include <stdbool.h>

typedef struct {
	const uint8_t *ptr;
	size_t len;
} wadge_bytes_t;

typedef struct {
	wadge_bytes_t wasm;
} wadge_config_t;
*/
import "C"

import (
	"context"
	"strings"
	"sync"
	"unsafe"

	"github.com/wasmCloud/wadge/abi"
	"github.com/wasmCloud/wadge/component"
)

// resourceDropPrefix mirrors component's unexported constant of the same
// name: the sentinel export-name shape spec.md §6 reserves for resource
// teardown, which instance_call must size an argument vector for before it
// can resolve anything through Instance.Func.
const resourceDropPrefix = "[resource-drop]"

// handle is what instance_new hands back as an opaque Instance*: a
// malloc'd one-byte sentinel block whose address is a real, unique, GC-
// invisible C pointer, keyed into registry to recover the Go-side state.
// This avoids ever reinterpreting a Go pointer, or an arbitrary integer, as
// a C pointer.
type handle struct {
	inst  *component.Instance
	arena *arena
}

var (
	registryMu sync.Mutex
	registry   = map[unsafe.Pointer]*handle{}
)

// defaultWasmPtr/defaultWasmLen are a one-time C.malloc'd copy of the
// compiled-in passthrough bytes: default_config hands out a pointer a
// native caller may hold onto indefinitely, which a Go-heap-backed slice
// cannot promise under cgo's pointer-passing rules.
var (
	defaultWasmPtr unsafe.Pointer
	defaultWasmLen C.size_t
)

func init() {
	wasm := component.DefaultWasm()
	if len(wasm) == 0 {
		return
	}
	defaultWasmPtr = C.malloc(C.size_t(len(wasm)))
	copy(unsafe.Slice((*byte)(defaultWasmPtr), len(wasm)), wasm)
	defaultWasmLen = C.size_t(len(wasm))
}

//export default_config
func default_config() C.wadge_config_t {
	return C.wadge_config_t{
		wasm: C.wadge_bytes_t{
			ptr: (*C.uint8_t)(defaultWasmPtr),
			len: defaultWasmLen,
		},
	}
}

//export instance_new
func instance_new(cfg C.wadge_config_t) unsafe.Pointer {
	ctx := context.Background()

	c := component.DefaultConfig().WithLogger(component.NewLoggerFromEnv())
	if cfg.wasm.ptr != nil && cfg.wasm.len > 0 {
		wasm := C.GoBytes(unsafe.Pointer(cfg.wasm.ptr), C.int(cfg.wasm.len))
		c = c.WithWasm(wasm)
	}

	inst, err := component.New(ctx, c)
	if err != nil {
		setLastError(err)
		return nil
	}

	key := C.malloc(1)
	registryMu.Lock()
	registry[key] = &handle{inst: inst, arena: newArena()}
	registryMu.Unlock()
	return key
}

//export instance_free
func instance_free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	registryMu.Lock()
	h, ok := registry[ptr]
	delete(registry, ptr)
	registryMu.Unlock()
	if ok {
		_ = h.inst.Close(context.Background())
	}
	C.free(ptr)
}

//export instance_call
func instance_call(ptr unsafe.Pointer, cIface, cName *C.char, args *unsafe.Pointer) C.bool {
	h, ok := lookupHandle(ptr)
	if !ok {
		setLastError(abi.NewError(abi.KindNullArgument, "instance_call: unknown instance pointer"))
		return false
	}

	iface := C.GoString(cIface)
	name := C.GoString(cName)
	ctx := context.Background()

	var paramCells int
	var resultCount int
	if !strings.HasPrefix(name, resourceDropPrefix) {
		fn, ok := h.inst.Func(iface, name)
		if !ok {
			setLastError(abi.WrapKind(abi.KindExportNotFound, nil, "no such export %q in interface %q", name, iface))
			return false
		}
		for _, p := range fn.Params() {
			layout, err := abi.LayoutOf(p)
			if err != nil {
				setLastError(err)
				return false
			}
			paramCells += layout.FlatArgs
		}
		resultCount = len(fn.Results())
	} else {
		paramCells = 1
	}

	total := paramCells + resultCount
	var nativeCells []unsafe.Pointer
	if total > 0 {
		if args == nil {
			setLastError(abi.NewError(abi.KindNullArgument, "instance_call: args is null but %q needs %d cells", name, total))
			return false
		}
		nativeCells = unsafe.Slice(args, total)
	}

	argCells := make([]uint64, paramCells)
	for i := 0; i < paramCells; i++ {
		argCells[i] = uint64(uintptr(nativeCells[i]))
	}
	resultDsts := make([]uint32, resultCount)
	for i := 0; i < resultCount; i++ {
		resultDsts[i] = uint32(uintptr(nativeCells[paramCells+i]))
	}

	mem := h.arena.memory()
	if err := h.inst.Call(ctx, mem, mem, iface, name, argCells, resultDsts); err != nil {
		setLastError(err)
		return false
	}
	setLastError(nil)
	return true
}

//export error_len
func error_len() C.size_t {
	return C.size_t(lastErrorLength())
}

//export error_take
func error_take(buf *C.uint8_t, cap C.size_t) C.size_t {
	if buf == nil || cap == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(cap))
	n := takeLastError(dst)
	return C.size_t(n)
}

func lookupHandle(ptr unsafe.Pointer) (*handle, bool) {
	if ptr == nil {
		return nil, false
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	h, ok := registry[ptr]
	return h, ok
}

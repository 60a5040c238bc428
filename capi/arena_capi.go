package capi

/*
#include <stdint.h>
#include <stddef.h>
#include <stdbool.h>
*/
import "C"

import (
	"context"
	"unsafe"
)

// arena_alloc, arena_write and arena_read are the supporting entry points
// arena.go's doc comment promises: since the compiled-in passthrough engine
// has no guest linear memory of its own, a native caller stages string/list
// payload bytes into the Instance's arena here before passing the resulting
// offset as an instance_call argument cell, and reads lowered results back
// out the same way. Not part of spec.md §4.6's six-entry table, but
// load-bearing for every call whose schema touches a string or list.

//export arena_alloc
func arena_alloc(ptr unsafe.Pointer, align C.uint32_t, size C.uint32_t) C.uint32_t {
	h, ok := lookupHandle(ptr)
	if !ok {
		return 0
	}
	offset, err := h.arena.alloc(context.Background(), uint32(align), uint32(size))
	if err != nil {
		setLastError(err)
		return 0
	}
	return C.uint32_t(offset)
}

//export arena_write
func arena_write(ptr unsafe.Pointer, offset C.uint32_t, data *C.uint8_t, length C.size_t) C.bool {
	if length == 0 {
		return C.bool(true)
	}
	h, ok := lookupHandle(ptr)
	if !ok {
		return C.bool(false)
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(length))
	return C.bool(h.arena.write(uint32(offset), src))
}

//export arena_read
func arena_read(ptr unsafe.Pointer, offset C.uint32_t, length C.size_t, out *C.uint8_t, outCap C.size_t) C.size_t {
	h, ok := lookupHandle(ptr)
	if !ok || length == 0 || outCap == 0 {
		return 0
	}
	buf, ok := h.arena.read(uint32(offset), uint32(length))
	if !ok {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(out)), int(outCap))
	n := copy(dst, buf)
	return C.size_t(n)
}

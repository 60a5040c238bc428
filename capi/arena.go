package capi

import (
	"context"
	"sync"

	"github.com/wasmCloud/wadge/abi"
)

// arena is the linear-memory surface instance_call's argument and result
// cells address. spec.md §6 describes argument cells as raw host pointers
// into caller memory, a contract that only makes sense when the callee is a
// real wasm32 guest sharing the host's address space; the compiled-in
// passthrough engine this build actually runs (component/passthrough.go) has
// no guest memory of its own, so capi supplies one arena per Instance and
// every cell — argument or result out-pointer — is an offset into it rather
// than a bare process pointer. A native caller stages string/list payload
// bytes with arena_alloc/arena_write before the call and reads lowered
// results back with arena_read afterward.
type arena struct {
	mu   sync.Mutex
	heap *abi.Heap
}

func newArena() *arena {
	return &arena{heap: abi.NewHeap()}
}

func (a *arena) alloc(ctx context.Context, align, size uint32) (uint32, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heap.Realloc(ctx, 0, 0, align, size)
}

func (a *arena) write(offset uint32, data []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heap.Write(offset, data)
}

func (a *arena) read(offset, length uint32) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.heap.Read(offset, length)
}

func (a *arena) memory() *abi.Heap {
	return a.heap
}

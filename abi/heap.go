package abi

import "context"

// Heap is a growable linear-memory surface implementing both Memory and
// Allocator, used by the passthrough engine in place of a real wasm guest's
// memory export. It is modelled on wazero's api.Memory contract (bounds-
// checked byte-slice reads/writes over a single contiguous buffer) but never
// imports wazero: a component backed by a real wasm module instead adapts
// that module's own exported memory.
type Heap struct {
	buf []byte
}

// NewHeap returns an empty heap. Offset 0 is reserved and never handed out
// by Realloc, mirroring the null-pointer convention spec.md §3 uses for
// empty strings/lists.
func NewHeap() *Heap {
	return &Heap{buf: make([]byte, 8)}
}

func (h *Heap) Size() uint32 { return uint32(len(h.buf)) }

func (h *Heap) Read(offset, length uint32) ([]byte, bool) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(h.buf)) {
		return nil, false
	}
	out := make([]byte, length)
	copy(out, h.buf[offset:end])
	return out, true
}

func (h *Heap) Write(offset uint32, data []byte) bool {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(h.buf)) {
		return false
	}
	copy(h.buf[offset:end], data)
	return true
}

// Realloc implements Allocator by bump-allocating fresh space at the end of
// the buffer and growing it as needed; it never actually reuses old/oldSize,
// matching cabi_realloc's contract of "old may be 0 to request a fresh
// allocation" for the only pattern this codec ever exercises (lower never
// shrinks or frees what it just allocated).
func (h *Heap) Realloc(ctx context.Context, old, oldSize, align, newSize uint32) (uint32, error) {
	if newSize == 0 {
		return 0, nil
	}
	base, err := alignUp(uint32(len(h.buf)), maxAlign(align))
	if err != nil {
		return 0, err
	}
	needed, err := addChecked(base, newSize)
	if err != nil {
		return 0, err
	}
	if needed > uint32(len(h.buf)) {
		grown := make([]byte, needed)
		copy(grown, h.buf)
		h.buf = grown
	}
	return base, nil
}

func maxAlign(align uint32) uint32 {
	if align == 0 {
		return 1
	}
	return align
}

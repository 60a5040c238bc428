package abi

import "context"

// Memory is the guest linear memory surface the codec reads and writes
// through. An engine adapts its own memory object (e.g. wazero's api.Memory)
// to this interface; the codec never depends on a concrete runtime.
type Memory interface {
	Read(offset, length uint32) ([]byte, bool)
	Write(offset uint32, data []byte) bool
	Size() uint32
}

// Allocator provides the guest's cabi_realloc export, used by Lower whenever
// it needs to place string or list data into linear memory (variant payloads
// are written in place and never allocate).
// old == 0 && oldSize == 0 requests a fresh allocation; newSize == 0 requests
// a free.
type Allocator interface {
	Realloc(ctx context.Context, old, oldSize, align, newSize uint32) (uint32, error)
}

// ResourceTable is the Resource Bridge (spec.md §4.4): the store-owned table
// that backs own/borrow handles. Handles are always 32-bit indices into this
// table; the table is never exposed to guest code directly.
type ResourceTable interface {
	// New inserts tok and returns its fresh handle index.
	New(tok ResourceToken) uint32

	// Take removes and returns the token for an own<T> handle (the move
	// semantics of lifting an owned handle consume the table entry).
	Take(handle uint32) (ResourceToken, bool)

	// Borrow returns the token for a borrow<T> handle without removing it
	// (alias semantics: the entry survives the call).
	Borrow(handle uint32) (ResourceToken, bool)

	// Drop removes the table entry for handle without returning it, for
	// callers that have no use for the token itself. The component
	// model's [resource-drop] export uses Take instead, since invoking
	// the resource's destructor needs the token Drop would discard.
	Drop(handle uint32) bool
}

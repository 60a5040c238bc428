package component

import (
	"bytes"
	"context"
	"errors"

	"github.com/wasmCloud/wadge/abi"
)

// Engine is the contract the Instance Facade consumes from the component-
// model engine proper (spec.md §1: "the component-model engine itself ...
// is out of scope"). It resolves exports by (interface, name) and invokes
// them with already-typed arguments; the codec in package abi never talks
// to an engine directly.
type Engine interface {
	// Resolve looks up name inside the named interface export. iface is
	// empty for a function exported directly off the component's default
	// export surface.
	Resolve(iface, name string) (ExportedFunction, bool)

	// Resources returns the store's resource table, shared across every
	// call made against this engine.
	Resources() abi.ResourceTable

	// DropResource invokes the destructor for tok, a token the Resource
	// Bridge just removed from the table on a "[resource-drop]<type>"
	// call (spec.md §3/§4.4: deleting the table entry is only half of
	// a drop; the engine's destructor must also run). Engines whose
	// resources carry no destructor may implement this as a no-op.
	DropResource(ctx context.Context, tok abi.ResourceToken) error

	// Close releases engine resources (the store, any compiled module
	// cache entry keyed to this instance).
	Close(ctx context.Context) error
}

// ExportedFunction is a single resolved export, bound to its schema.
type ExportedFunction interface {
	Params() []abi.Type
	Results() []abi.Type

	// Invoke runs the function body with already-lifted arguments and
	// returns already-typed results.
	Invoke(ctx context.Context, args []abi.Value) ([]abi.Value, error)

	// PostReturn services the component model's post-return hook so the
	// guest may reclaim scratch memory used to produce results. It is a
	// no-op for exports that declare none.
	PostReturn(ctx context.Context) error
}

// ErrCoreModuleUnsupported is returned by New when the supplied bytes are a
// core WebAssembly module rather than a component binary. spec.md §6 notes
// that core modules are ordinarily upgraded by attaching the standard
// preview1 reactor adapter before instantiation; that adapter is out of
// scope here, so the facade reports the condition instead of silently
// misinterpreting the bytes as a component.
var ErrCoreModuleUnsupported = errors.New("wadge/component: core wasm modules require the preview1 reactor adapter, which this build does not include")

// coreModuleLayer and componentLayer are the two values the 2-byte "layer"
// field of a wasm binary header takes on, immediately after the 4-byte
// magic and the first 2 bytes of the version field.
const (
	wasmMagic           = "\x00asm"
	coreModuleLayer     = 0x0000
	componentLayer      = 0x0001
	headerLayerOffset   = 6
	headerMinimumLength = 8
)

// IsCoreModule sniffs a wasm binary's header to tell a core module apart
// from a component binary, without fully parsing either.
func IsCoreModule(wasm []byte) bool {
	if len(wasm) < headerMinimumLength || !bytes.HasPrefix(wasm, []byte(wasmMagic)) {
		return false
	}
	layer := uint16(wasm[headerLayerOffset]) | uint16(wasm[headerLayerOffset+1])<<8
	return layer == coreModuleLayer
}

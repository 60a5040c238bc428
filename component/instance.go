package component

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wasmCloud/wadge/abi"
)

// resourceDropPrefix is the sentinel spec.md §4.4/§6 gives [resource-drop]
// calls: any export name of this shape is intercepted by the facade before
// export lookup and never forwarded to the engine as a regular export.
const resourceDropPrefix = "[resource-drop]"

// Instance is the Instance Facade (spec.md §4.5): it owns one engine, one
// tracing subscriber, and a mutex serializing reentrant access to the
// component-model state during a single call. It is the only type the C ABI
// Surface needs to hold an opaque pointer to.
type Instance struct {
	mu     sync.Mutex
	engine Engine
	logger *zap.Logger
	tracer *callTracer
}

// New builds an Instance from cfg. If cfg carries an explicit Engine
// (cfg.WithEngine), that engine is used as-is; otherwise cfg.wasm is sniffed:
// a core module returns ErrCoreModuleUnsupported, and any other bytes get the
// passthrough engine from newPassthroughEngine, whose exports are fixed and
// do not depend on the bytes.
func New(ctx context.Context, cfg *Config) (*Instance, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tracer := newCallTracer(logger)

	engine := cfg.engine
	if engine == nil {
		if IsCoreModule(cfg.wasm) {
			return nil, ErrCoreModuleUnsupported
		}
		var err error
		engine, err = newPassthroughEngine(ctx, cfg.wasm, abi.NewInProcessResourceTable(), tracer)
		if err != nil {
			return nil, abi.Wrap(err, "failed to build default engine")
		}
	}

	return &Instance{engine: engine, logger: logger, tracer: tracer}, nil
}

// Func looks up name inside the named interface export (spec.md §4.5). iface
// may be empty for exports at the component's top level.
func (in *Instance) Func(iface, name string) (ExportedFunction, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Resolve(iface, name)
}

// Call orchestrates one invocation end to end: intercept [resource-drop],
// otherwise lift parameters, invoke, lower results, and run post-return.
// argCells is the flattened parameter vector; resultDsts is one
// caller-owned destination pointer per declared result, per spec.md §4.6's
// argument-vector encoding.
func (in *Instance) Call(ctx context.Context, mem abi.Memory, alloc abi.Allocator, iface, name string, argCells []uint64, resultDsts []uint32) (err error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	ctx = in.tracer.before(ctx, iface, name, nil)
	defer func() {
		in.tracer.after(ctx, iface, name, err, nil)
	}()

	if dropped, ok := strings.CutPrefix(name, resourceDropPrefix); ok {
		return in.dispatchResourceDrop(ctx, argCells, dropped)
	}

	fn, ok := in.engine.Resolve(iface, name)
	if !ok {
		return abi.WrapKind(abi.KindExportNotFound, fmt.Errorf("no such export"), "failed to resolve %q in interface %q", name, iface)
	}

	table := in.engine.Resources()
	params := fn.Params()
	args, _, err := abi.LiftParams(ctx, mem, table, params, argCells)
	if err != nil {
		return abi.Wrap(err, "failed to lift parameters for %q", name)
	}

	results, err := fn.Invoke(ctx, args)
	if err != nil {
		return abi.Wrap(err, "call to %q failed", name)
	}

	if err := abi.LowerResults(ctx, mem, alloc, table, results, fn.Results(), resultDsts); err != nil {
		return abi.Wrap(err, "failed to lower results of %q", name)
	}

	if err := fn.PostReturn(ctx); err != nil {
		return abi.Wrap(err, "post-return failed for %q", name)
	}
	return nil
}

// dispatchResourceDrop services the "[resource-drop]<type-name>" fast path
// (spec.md §4.4): it reads one argument cell as a u32 representation,
// deletes that entry, and invokes the engine's drop hook on the token that
// was stored there. It fails with ResourceTableMiss if the entry was
// already gone. typeName is used only for diagnostics.
func (in *Instance) dispatchResourceDrop(ctx context.Context, argCells []uint64, typeName string) error {
	if len(argCells) < 1 {
		return abi.WrapKind(abi.KindNullArgument, fmt.Errorf("missing handle argument"), "[resource-drop]%s requires one argument cell", typeName)
	}
	handle := uint32(argCells[0])
	tok, ok := in.engine.Resources().Take(handle)
	if !ok {
		return abi.WrapKind(abi.KindResourceTableMiss, fmt.Errorf("no resource at handle %d", handle), "[resource-drop]%s", typeName)
	}
	if err := in.engine.DropResource(ctx, tok); err != nil {
		return abi.Wrap(err, "[resource-drop]%s destructor failed", typeName)
	}
	return nil
}

// Close releases the underlying engine.
func (in *Instance) Close(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.engine.Close(ctx)
}

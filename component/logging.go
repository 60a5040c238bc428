package component

import (
	"context"
	"os"

	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/experimental"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wasmCloud/wadge/abi"
)

// logFilterEnv is the single environment variable spec.md §6 names for
// tracing: "WASM_HOST_LOG"; unset disables tracing entirely.
const logFilterEnv = "WASM_HOST_LOG"

// NewLoggerFromEnv builds the per-instance tracing subscriber (spec.md §3:
// "one shared tracing subscriber") from logFilterEnv. An unset or
// unrecognized value yields a no-op logger, matching the "unset disables
// tracing" contract; any recognized level enables structured call logging
// at that level and above.
func NewLoggerFromEnv() *zap.Logger {
	raw, ok := os.LookupEnv(logFilterEnv)
	if !ok || raw == "" {
		return zap.NewNop()
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return zap.NewNop()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// callTracer is the per-Instance tracing subscriber: New creates one per
// Instance and it observes every call made on that Instance. It serves two
// roles: before/after give the facade
// structured logging over its own (interface, name, typed args) call shape,
// while NewListener/Before/After implement wazero's
// experimental.FunctionListenerFactory/FunctionListener so the passthrough
// engine's per-call tracing probe (see passthrough.go) is observed through
// the same mechanism a real wasm-backed engine would use, rather than a
// hand-rolled imitation of it.
type callTracer struct {
	logger *zap.Logger
}

func newCallTracer(logger *zap.Logger) *callTracer {
	return &callTracer{logger: logger}
}

func (t *callTracer) before(ctx context.Context, iface, name string, args []abi.Value) context.Context {
	t.logger.Debug("call", zap.String("interface", iface), zap.String("name", name), zap.Int("args", len(args)))
	return ctx
}

func (t *callTracer) after(ctx context.Context, iface, name string, err error, results []abi.Value) {
	if err != nil {
		t.logger.Debug("call failed", zap.String("interface", iface), zap.String("name", name), zap.Error(err))
		return
	}
	t.logger.Debug("call returned", zap.String("interface", iface), zap.String("name", name), zap.Int("results", len(results)))
}

// NewListener implements experimental.FunctionListenerFactory. Every defined
// function instantiated with this tracer installed on its context (the
// passthrough probe module, see newPassthroughEngine) is notified through t
// itself; there is exactly one tracer per Instance, so no per-function state
// is needed.
func (t *callTracer) NewListener(def api.FunctionDefinition) experimental.FunctionListener {
	return t
}

// Before implements experimental.FunctionListener.
func (t *callTracer) Before(ctx context.Context, def api.FunctionDefinition, paramValues []uint64) context.Context {
	t.logger.Debug("engine dispatch", zap.String("function", def.DebugName()))
	return ctx
}

// After implements experimental.FunctionListener.
func (t *callTracer) After(ctx context.Context, def api.FunctionDefinition, err error, resultValues []uint64) {
	if err != nil {
		t.logger.Debug("engine dispatch failed", zap.String("function", def.DebugName()), zap.Error(err))
	}
}

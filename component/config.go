package component

import (
	"go.uber.org/zap"
)

// Config controls how New builds an Instance, with the default produced by
// DefaultConfig and pointing at the compiled-in passthrough component.
type Config struct {
	wasm   []byte
	engine Engine
	logger *zap.Logger
}

// clone ensures every field is copied even if nil, so With* methods never
// mutate the receiver a caller is still holding.
func (c *Config) clone() *Config {
	return &Config{wasm: c.wasm, engine: c.engine, logger: c.logger}
}

// DefaultConfig returns a Config pointing at the compiled-in passthrough
// component bytes (spec.md §4.6, `default_config()`).
func DefaultConfig() *Config {
	return &Config{wasm: passthroughWasm, logger: zap.NewNop()}
}

// WithWasm targets a specific component (or core module) binary instead of
// the compiled-in passthrough default.
func (c *Config) WithWasm(wasm []byte) *Config {
	ret := c.clone()
	ret.wasm = wasm
	return ret
}

// WithEngine overrides the Engine the Instance is built against, bypassing
// binary sniffing entirely, so a caller can drive its own Engine directly.
// The passthrough default does not go through this option: New builds it
// when no engine is set.
func (c *Config) WithEngine(e Engine) *Config {
	ret := c.clone()
	ret.engine = e
	return ret
}

// WithLogger overrides the zap.Logger used for call tracing. See
// NewLoggerFromEnv for the default, environment-driven construction.
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	ret := c.clone()
	ret.logger = logger
	return ret
}

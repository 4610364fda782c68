package com

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/arena"
	"github.com/wippyai/wasm-com/errors"
)

// DefaultHeapSize is the heap size NewSpace uses when Config.HeapSize is 0.
const DefaultHeapSize = 1 << 20

// Config configures a Space.
type Config struct {
	// Logger overrides the package logger for this space.
	Logger *zap.Logger

	// PointerWidth is the size of a pointer in linear memory, 4 or 8.
	// Defaults to 4.
	PointerWidth uint32

	// HeapBase is the first address the heap manages. Defaults to
	// arena.DefaultBase.
	HeapBase uint32

	// HeapSize is the number of bytes the heap manages. NewSpace defaults it
	// to DefaultHeapSize; NewSpaceWithMemory treats 0 as "to the end of
	// memory".
	HeapSize uint32
}

func (c *Config) withDefaults() Config {
	out := Config{}
	if c != nil {
		out = *c
	}
	if out.PointerWidth == 0 {
		out.PointerWidth = 4
	}
	if out.HeapBase == 0 {
		out.HeapBase = arena.DefaultBase
	}
	if out.Logger == nil {
		out.Logger = Logger()
	}
	return out
}

func (c Config) validate() error {
	if c.PointerWidth != 4 && c.PointerWidth != 8 {
		return errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Value(c.PointerWidth).
			Detail("pointer width must be 4 or 8, got %d", c.PointerWidth).
			Build()
	}
	return nil
}

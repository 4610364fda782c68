package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/arena"
	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/internal/abi"
)

// DefaultModuleName is the host module name used by Export.
const DefaultModuleName = "com"

// Config holds configuration for engine creation
type Config struct {
	// ModuleName is the name of the exported host module.
	// Empty means DefaultModuleName.
	ModuleName string

	// MemoryPages is the initial size of memories created by NewMemory, in
	// 64KiB pages. 0 means 1.
	MemoryPages uint32

	// MaxMemoryPages caps memory growth. 0 means no declared maximum; the
	// runtime limit still applies.
	MaxMemoryPages uint32
}

// Engine wraps a wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	cfg     Config
}

// New creates an engine with its own wazero runtime.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.ModuleName == "" {
		c.ModuleName = DefaultModuleName
	}
	if c.MemoryPages == 0 {
		c.MemoryPages = 1
	}
	if c.MaxMemoryPages != 0 && c.MaxMemoryPages < c.MemoryPages {
		return nil, errors.New(errors.PhaseLoad, errors.KindInvalidInput).
			Detail("max memory pages %d below initial %d", c.MaxMemoryPages, c.MemoryPages).
			Build()
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if c.MaxMemoryPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(c.MaxMemoryPages)
	}
	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		cfg:     c,
	}, nil
}

// Runtime returns the underlying wazero runtime.
func (e *Engine) Runtime() wazero.Runtime {
	return e.runtime
}

// Close closes the runtime and every module in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// NewMemory instantiates a module named name that only defines and exports
// a memory, and returns the module with its wrapped memory.
func (e *Engine) NewMemory(ctx context.Context, name string) (api.Module, *arena.Wrapper, error) {
	bin := memoryModule(e.cfg.MemoryPages, e.cfg.MaxMemoryPages)

	mod, err := e.runtime.InstantiateWithConfig(ctx, bin, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, nil, errors.Load("instantiate memory module "+name, err)
	}
	mem := arena.WrapMemory(mod.ExportedMemory(memoryExport))
	if mem == nil {
		_ = mod.Close(ctx)
		return nil, nil, errors.Load("memory module exports no memory", nil)
	}

	Logger().Debug("memory created",
		zap.String("module", name),
		zap.Uint32("pages", e.cfg.MemoryPages),
		zap.Uint32("max_pages", e.cfg.MaxMemoryPages))
	return mod, mem, nil
}

// NewSpace creates a space whose objects live in a fresh wazero memory.
// The heap spans the whole memory and grows it on demand.
func (e *Engine) NewSpace(ctx context.Context, name string, cfg *com.Config) (*com.Space, api.Module, error) {
	mod, mem, err := e.NewMemory(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	space, err := com.NewSpaceWithMemory(mem, cfg)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, nil, err
	}
	return space, mod, nil
}

// Export instantiates the host module exposing the IUnknown primitives of
// space and makes it the module thunks receive.
func (e *Engine) Export(ctx context.Context, space *com.Space) (api.Module, error) {
	if space == nil {
		return nil, errors.NilPointer(errors.PhaseLoad, nil, "space")
	}
	ptr := abi.PointerType(space.Width())
	i32 := api.ValueTypeI32

	builder := e.runtime.NewHostModuleBuilder(e.cfg.ModuleName)
	for _, f := range []struct {
		fn      api.GoModuleFunc
		name    string
		params  []api.ValueType
		results []api.ValueType
	}{
		{forward(space, iface.SlotQueryInterface, 2), "query_interface", []api.ValueType{ptr, ptr, ptr}, []api.ValueType{i32}},
		{forward(space, iface.SlotAddRef, 0), "add_ref", []api.ValueType{ptr}, []api.ValueType{i32}},
		{forward(space, iface.SlotRelease, 0), "release", []api.ValueType{ptr}, []api.ValueType{i32}},
	} {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.fn, f.params, f.results).
			Export(f.name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Load("instantiate host module "+e.cfg.ModuleName, err)
	}
	space.SetModule(mod)

	Logger().Debug("host module exported", zap.String("module", e.cfg.ModuleName))
	return mod, nil
}

// forward returns a host function that dispatches slot through the vtable
// of stack[0]. Dispatch failures panic, which wazero reports to the guest's
// caller as a trap.
func forward(space *com.Space, slot, nargs int) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		this := space.Ptr(uint32(stack[0]))
		res, err := this.Invoke(ctx, slot, stack[1:1+nargs]...)
		if err != nil {
			panic(err)
		}
		stack[0] = res[0]
	}
}

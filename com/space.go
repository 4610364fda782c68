package com

import (
	"sort"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	wasmcom "github.com/wippyai/wasm-com"
	"github.com/wippyai/wasm-com/arena"
	"github.com/wippyai/wasm-com/dispatch"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

// scratchSize holds one IID followed by one out-pointer of either width.
const scratchSize = iid.Size + 8

// binding records which object and interface index a vtable belongs to.
type binding struct {
	class *Class
	base  uint32
	index int
}

// Space owns a linear memory, the heap allocating from it and the function
// table vtable slots point into. Objects, classes and pointers all belong to
// exactly one Space.
//
// A Space is not safe for concurrent use. See Synchronized.
type Space struct {
	mem       wasmcom.Memory
	module    api.Module
	heap      *arena.Heap
	table     *dispatch.Table
	compiler  *iface.Compiler
	registry  *iface.Registry
	logger    *zap.Logger
	classes   map[string]*Class
	vtables   map[uint32]binding // vtable address -> owner
	observers []subscription
	nextSub   uint64
	width     uint32
	scratch   uint32
}

// NewSpace creates a space backed by a fresh slice memory sized for the
// configured heap.
func NewSpace(cfg *Config) (*Space, error) {
	c := cfg.withDefaults()
	if c.HeapSize == 0 {
		c.HeapSize = DefaultHeapSize
	}
	end := uint64(c.HeapBase) + uint64(c.HeapSize)
	if end > 1<<32 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "heap does not fit in a 32-bit address space")
	}
	pages := uint32((end + wasmcom.PageSize - 1) / wasmcom.PageSize)
	return newSpace(arena.NewBuffer(pages, pages), c)
}

// NewSpaceWithMemory creates a space over an existing memory, for example a
// wazero instance memory wrapped with arena.WrapMemory.
func NewSpaceWithMemory(mem wasmcom.Memory, cfg *Config) (*Space, error) {
	if mem == nil {
		return nil, errors.NilPointer(errors.PhaseLoad, nil, "memory")
	}
	return newSpace(mem, cfg.withDefaults())
}

func newSpace(mem wasmcom.Memory, c Config) (*Space, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	heap, err := arena.NewHeap(mem, &arena.Config{Base: c.HeapBase, Size: c.HeapSize})
	if err != nil {
		return nil, err
	}

	s := &Space{
		mem:      mem,
		heap:     heap,
		table:    dispatch.NewTable(),
		compiler: compilerFor(c.PointerWidth),
		registry: iface.NewRegistry(),
		logger:   c.Logger,
		classes:  make(map[string]*Class),
		vtables:  make(map[uint32]binding),
		width:    c.PointerWidth,
	}

	s.scratch, err = heap.Alloc(scratchSize, 8)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseLoad, errors.KindAllocation, err, "allocate call scratch area")
	}

	s.logger.Debug("space created",
		zap.Uint32("pointer_width", s.width),
		zap.Uint32("heap_base", c.HeapBase),
		zap.Uint32("heap_capacity", heap.Stats().Capacity))
	return s, nil
}

// Memory returns the linear memory of the space.
func (s *Space) Memory() wasmcom.Memory { return s.mem }

// Heap returns the allocator objects and vtables come from.
func (s *Space) Heap() *arena.Heap { return s.heap }

// Table returns the function table vtable slots index into.
func (s *Space) Table() *dispatch.Table { return s.table }

// Width returns the pointer width in bytes.
func (s *Space) Width() uint32 { return s.width }

// Registry returns the interfaces known to the space.
func (s *Space) Registry() *iface.Registry { return s.registry }

// Compiler returns the vtable layout compiler for the space's pointer width.
func (s *Space) Compiler() *iface.Compiler { return s.compiler }

// Logger returns the space logger.
func (s *Space) Logger() *zap.Logger { return s.logger }

// SetModule sets the module handed to thunks as their api.Module argument.
// It is nil unless the space is exported through a wazero host module.
func (s *Space) SetModule(mod api.Module) { s.module = mod }

// Class returns a registered class by name.
func (s *Space) Class(name string) (*Class, bool) {
	c, ok := s.classes[name]
	return c, ok
}

// Classes returns all registered classes sorted by name.
func (s *Space) Classes() []*Class {
	out := make([]*Class, 0, len(s.classes))
	for _, c := range s.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Ptr wraps a raw interface pointer address.
func (s *Space) Ptr(addr uint32) Ptr {
	return Ptr{space: s, addr: addr}
}

// Resolve maps a live interface pointer back to its object and interface
// index. It reads the dispatch pointer at addr and looks up the vtable it
// names.
func (s *Space) Resolve(addr uint32) (*Object, int, bool) {
	if addr == 0 {
		return nil, 0, false
	}
	vt, err := s.readPtr(addr)
	if err != nil {
		return nil, 0, false
	}
	b, ok := s.vtables[vt]
	if !ok || b.class.layout.VPtrOffsets[b.index]+b.base != addr {
		return nil, 0, false
	}
	return &Object{class: b.class, base: b.base}, b.index, true
}

// WriteIID stores id at addr in its 16-byte binary form.
func (s *Space) WriteIID(addr uint32, id iid.IID) error {
	b := id.Bytes()
	return s.mem.Write(addr, b[:])
}

// ReadIID loads the 16-byte identifier at addr.
func (s *Space) ReadIID(addr uint32) (iid.IID, error) {
	b, err := s.mem.Read(addr, iid.Size)
	if err != nil {
		return iid.Nil, err
	}
	return iid.Decode(b)
}

// Register binds the thunks of def into the function table and returns the
// class. Class names and interface identifiers must be unique within the
// space.
func (s *Space) Register(def *Definition) (*Class, error) {
	if def == nil {
		return nil, errors.NilPointer(errors.PhaseDefine, nil, "definition")
	}
	if _, dup := s.classes[def.Name]; dup {
		return nil, errors.Duplicate(errors.PhaseDefine, "class", def.Name)
	}

	lay, err := def.Layout(s.width)
	if err != nil {
		return nil, err
	}
	if err := s.registry.RegisterAll(def.Interfaces...); err != nil {
		return nil, errors.Registration(errors.PhaseDefine, "class", def.Name, err)
	}

	c := &Class{space: s, def: def, layout: lay}
	c.bind()
	s.classes[def.Name] = c

	s.logger.Debug("class registered",
		zap.String("class", def.Name),
		zap.Int("interfaces", len(lay.Interfaces)),
		zap.Uint32("size", lay.Size))
	return c, nil
}

func (s *Space) readPtr(addr uint32) (uint32, error) {
	if s.width == 4 {
		return s.mem.ReadU32(addr)
	}
	v, err := s.mem.ReadU64(addr)
	if err != nil {
		return 0, err
	}
	if v > 0xFFFFFFFF {
		return 0, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Value(v).
			Detail("pointer 0x%x at 0x%x exceeds the 32-bit address space", v, addr).
			Build()
	}
	return uint32(v), nil
}

func (s *Space) writePtr(addr, value uint32) error {
	if s.width == 4 {
		return s.mem.WriteU32(addr, value)
	}
	return s.mem.WriteU64(addr, uint64(value))
}

// fatal logs err and panics with it.
func (s *Space) fatal(err *errors.Error) {
	s.logger.Error("fatal object model error",
		zap.String("phase", string(err.Phase)),
		zap.String("kind", string(err.Kind)),
		zap.String("class", err.Class),
		zap.Error(err))
	panic(err)
}

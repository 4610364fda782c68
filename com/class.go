package com

import (
	"encoding/binary"
	"math"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/errors"
)

// Class is a Definition registered in a Space. Its thunks live in the
// space's function table; New constructs instances.
type Class struct {
	space  *Space
	def    *Definition
	layout *ObjectLayout
	slots  [][]uint32 // interface index -> slot -> function table index
	live   int
}

// Name returns the class name.
func (c *Class) Name() string { return c.def.Name }

// Definition returns the definition the class was registered from.
func (c *Class) Definition() *Definition { return c.def }

// Layout returns the object layout for the space's pointer width.
func (c *Class) Layout() *ObjectLayout { return c.layout }

// Space returns the owning space.
func (c *Class) Space() *Space { return c.space }

// Live returns the number of constructed, not yet destroyed instances.
func (c *Class) Live() int { return c.live }

// SlotIndices returns the function table indices written into the vtable
// of interface index.
func (c *Class) SlotIndices(index int) []uint32 {
	if index < 0 || index >= len(c.slots) {
		return nil
	}
	return append([]uint32(nil), c.slots[index]...)
}

// New constructs an object. It allocates one vtable per implemented
// interface, fills the slots, allocates the object, writes the dispatch
// pointers, sets the reference count to 0 and stores values verbatim into
// the payload fields in declaration order. Missing trailing values take
// the class defaults, then zero.
//
// The returned object has count 0. Add a reference (or query an interface)
// before handing a pointer out.
//
// On failure every block allocated so far is freed.
func (c *Class) New(values ...any) (*Object, error) {
	s := c.space
	lay := c.layout

	if len(values) > len(lay.Fields) {
		return nil, errors.New(errors.PhaseConstruct, errors.KindInvalidInput).
			Class(c.Name()).
			Detail("%d values for %d fields", len(values), len(lay.Fields)).
			Build()
	}
	if defaults := c.def.Defaults; len(values) < len(defaults) {
		values = append(append([]any(nil), values...), defaults[len(values):]...)
	}
	payload := make([][]byte, len(values))
	for i, v := range values {
		b, err := encodeValue(lay.Fields[i], v)
		if err != nil {
			return nil, errors.New(errors.PhaseConstruct, errors.KindTypeMismatch).
				Class(c.Name()).
				Path(lay.Fields[i].Name).
				Cause(err).
				Build()
		}
		payload[i] = b
	}

	var vtables []uint32
	rollback := func() {
		for i, vt := range vtables {
			s.heap.Free(vt, lay.Interfaces[i].Size(), s.width)
		}
	}

	for i, vt := range lay.Interfaces {
		addr, err := s.heap.Alloc(vt.Size(), s.width)
		if err != nil {
			rollback()
			return nil, errors.New(errors.PhaseConstruct, errors.KindAllocation).
				Class(c.Name()).
				Interface(vt.Interface.Name).
				Cause(err).
				Detail("allocate vtable").
				Build()
		}
		vtables = append(vtables, addr)
		for slot, fn := range c.slots[i] {
			if err := s.writePtr(addr+uint32(slot)*s.width, fn); err != nil {
				rollback()
				return nil, errors.Wrap(errors.PhaseConstruct, errors.KindOutOfBounds, err, "write vtable slot")
			}
		}
	}

	base, err := s.heap.Alloc(lay.Size, lay.Align)
	if err != nil {
		rollback()
		return nil, errors.New(errors.PhaseConstruct, errors.KindAllocation).
			Class(c.Name()).
			Cause(err).
			Detail("allocate object").
			Build()
	}
	fail := func(err error, what string) (*Object, error) {
		s.heap.Free(base, lay.Size, lay.Align)
		rollback()
		return nil, errors.Wrap(errors.PhaseConstruct, errors.KindOutOfBounds, err, what)
	}

	for i, vt := range vtables {
		if err := s.writePtr(base+lay.VPtrOffsets[i], vt); err != nil {
			return fail(err, "write dispatch pointer")
		}
	}
	if err := s.mem.WriteU32(base+lay.RefCountOffset, 0); err != nil {
		return fail(err, "write reference count")
	}
	for i, b := range payload {
		if err := s.mem.Write(base+lay.Fields[i].Offset, b); err != nil {
			return fail(err, "write field "+lay.Fields[i].Name)
		}
	}

	for i, vt := range vtables {
		s.vtables[vt] = binding{class: c, base: base, index: i}
	}
	c.live++

	s.logger.Debug("object constructed",
		zap.String("class", c.Name()),
		zap.Uint32("base", base),
		zap.Int("vtables", len(vtables)))
	s.emit(Event{Type: EventConstructed, Class: c.Name(), Base: base, Ptr: base})
	return &Object{class: c, base: base}, nil
}

// recoverBase converts an interface pointer for interface index into the
// object base. An index outside the layout, a pointer below the field
// offset, or a base that is not a live object of this class is fatal.
func (c *Class) recoverBase(ptr uint32, index int) uint32 {
	off, ok := c.layout.Offset(index)
	if !ok {
		c.space.fatal(errors.New(errors.PhaseLifetime, errors.KindOutOfBounds).
			Class(c.Name()).
			Value(index).
			Detail("interface index %d out of range (%d interfaces)", index, len(c.layout.VPtrOffsets)).
			Build())
	}
	if ptr < off {
		c.space.fatal(errors.New(errors.PhaseLifetime, errors.KindOutOfBounds).
			Class(c.Name()).
			Value(ptr).
			Detail("pointer 0x%x is below the field offset %d", ptr, off).
			Build())
	}
	base := ptr - off

	vt, err := c.space.readPtr(ptr)
	if err != nil {
		c.space.fatal(errors.Wrap(errors.PhaseLifetime, errors.KindOutOfBounds, err, "read dispatch pointer"))
	}
	b, ok := c.space.vtables[vt]
	if !ok || b.class != c || b.base != base || b.index != index {
		c.space.fatal(errors.New(errors.PhaseLifetime, errors.KindInvalidData).
			Class(c.Name()).
			Value(ptr).
			Detail("pointer 0x%x is not interface %d of a live %s", ptr, index, c.Name()).
			Build())
	}
	return base
}

func encodeValue(f FieldLayout, v any) ([]byte, error) {
	b := make([]byte, f.Size)
	if raw, ok := v.([]byte); ok {
		if uint32(len(raw)) != f.Size {
			return nil, errors.InvalidInput(errors.PhaseConstruct, "raw value length does not match field size")
		}
		copy(b, raw)
		return b, nil
	}
	if isComposite(f.Type) {
		return nil, errors.InvalidInput(errors.PhaseConstruct, "scalar value for a composite field; pass raw bytes")
	}

	switch x := v.(type) {
	case bool:
		if x {
			return putUint(b, 1)
		}
		return putUint(b, 0)
	case uint8:
		return putUint(b, uint64(x))
	case uint16:
		return putUint(b, uint64(x))
	case uint32:
		return putUint(b, uint64(x))
	case uint64:
		return putUint(b, x)
	case int8:
		return putUint(b, uint64(x))
	case int16:
		return putUint(b, uint64(x))
	case int32:
		return putUint(b, uint64(x))
	case int64:
		return putUint(b, uint64(x))
	case int:
		return putUint(b, uint64(x))
	case float32:
		if f.Size != 4 {
			return nil, errors.InvalidInput(errors.PhaseConstruct, "float32 needs a 4-byte field")
		}
		return putUint(b, uint64(math.Float32bits(x)))
	case float64:
		if f.Size != 8 {
			return nil, errors.InvalidInput(errors.PhaseConstruct, "float64 needs an 8-byte field")
		}
		return putUint(b, math.Float64bits(x))
	default:
		return nil, errors.Unsupported(errors.PhaseConstruct, "value of unsupported Go type")
	}
}

func isComposite(t wit.Type) bool {
	td, ok := t.(*wit.TypeDef)
	if !ok {
		return false
	}
	switch k := td.Kind.(type) {
	case *wit.Enum, *wit.Flags:
		return false
	case wit.Type:
		return isComposite(k)
	default:
		return true
	}
}

// putUint stores v little-endian into b, which must be 1, 2, 4 or 8 bytes.
func putUint(b []byte, v uint64) ([]byte, error) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	default:
		return nil, errors.InvalidInput(errors.PhaseConstruct, "scalar value for a composite field; pass raw bytes")
	}
	return b, nil
}

package com

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/errors"
)

// addRef increments the shared count through interface index and returns
// the new count. Overflow is fatal.
func (c *Class) addRef(ptr uint32, index int) uint32 {
	base := c.recoverBase(ptr, index)
	n := c.increment(base)
	c.space.emit(Event{Type: EventAddRef, Class: c.Name(), Ptr: ptr, Base: base, Count: n})
	return n
}

// release decrements the shared count through interface index and returns
// the new count. At zero it frees every vtable and then the object.
// Underflow is fatal.
func (c *Class) release(ptr uint32, index int) uint32 {
	s := c.space
	base := c.recoverBase(ptr, index)

	n := c.loadCount(base)
	if n == 0 {
		s.fatal(errors.Underflow(errors.PhaseLifetime, c.Name(), n))
	}
	n--
	c.storeCount(base, n)

	s.logger.Debug("release",
		zap.String("class", c.Name()),
		zap.Uint32("ptr", ptr),
		zap.Uint32("count", n))
	s.emit(Event{Type: EventRelease, Class: c.Name(), Ptr: ptr, Base: base, Count: n})

	if n == 0 {
		c.destroy(base)
	}
	return n
}

// Discard destroys an object nobody holds a reference to, undoing New.
// It fails if the object is no longer live or its count is not zero.
func (o *Object) Discard() error {
	c := o.class
	if live, _, ok := c.space.Resolve(o.base); !ok || live.class != c {
		return errors.New(errors.PhaseLifetime, errors.KindInvalidInput).
			Class(c.Name()).
			Value(o.base).
			Detail("object 0x%x is not live", o.base).
			Build()
	}
	if n := c.loadCount(o.base); n != 0 {
		return errors.New(errors.PhaseLifetime, errors.KindInvalidInput).
			Class(c.Name()).
			Value(n).
			Detail("discard with %d outstanding references", n).
			Build()
	}
	c.destroy(o.base)
	return nil
}

func (c *Class) increment(base uint32) uint32 {
	n := c.loadCount(base)
	if n == math.MaxUint32 {
		c.space.fatal(errors.Overflow(errors.PhaseLifetime, c.Name(), n))
	}
	n++
	c.storeCount(base, n)
	return n
}

func (c *Class) destroy(base uint32) {
	s := c.space
	lay := c.layout

	for i, vt := range lay.Interfaces {
		addr, err := s.readPtr(base + lay.VPtrOffsets[i])
		if err != nil {
			s.fatal(errors.Wrap(errors.PhaseLifetime, errors.KindOutOfBounds, err, "read dispatch pointer during teardown"))
		}
		delete(s.vtables, addr)
		s.heap.Free(addr, vt.Size(), s.width)
	}
	s.heap.Free(base, lay.Size, lay.Align)
	c.live--

	s.logger.Debug("object destroyed", zap.String("class", c.Name()), zap.Uint32("base", base))
	s.emit(Event{Type: EventDestroyed, Class: c.Name(), Base: base, Ptr: base})
}

func (c *Class) loadCount(base uint32) uint32 {
	n, err := c.space.mem.ReadU32(base + c.layout.RefCountOffset)
	if err != nil {
		c.space.fatal(errors.Wrap(errors.PhaseLifetime, errors.KindOutOfBounds, err, "read reference count"))
	}
	return n
}

func (c *Class) storeCount(base, n uint32) {
	if err := c.space.mem.WriteU32(base+c.layout.RefCountOffset, n); err != nil {
		c.space.fatal(errors.Wrap(errors.PhaseLifetime, errors.KindOutOfBounds, err, "write reference count"))
	}
}

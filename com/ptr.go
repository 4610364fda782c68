package com

import (
	"context"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

// Ptr is an interface pointer: the address of one dispatch pointer field.
// Calls go through the vtable in memory exactly as a foreign caller's
// would. A Ptr returned by QueryInterface carries one reference.
type Ptr struct {
	space *Space
	addr  uint32
}

// Addr returns the raw address.
func (p Ptr) Addr() uint32 { return p.addr }

// IsNil reports whether p is the null pointer.
func (p Ptr) IsNil() bool { return p.addr == 0 }

// Space returns the space p belongs to.
func (p Ptr) Space() *Space { return p.space }

// Slot returns the function table index stored in vtable slot.
func (p Ptr) Slot(slot int) (uint32, error) {
	if p.space == nil || p.addr == 0 {
		return 0, errors.NilPointer(errors.PhaseDispatch, nil, "interface pointer")
	}
	s := p.space
	vt, err := s.readPtr(p.addr)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseDispatch, errors.KindOutOfBounds, err, "read dispatch pointer")
	}
	if vt == 0 {
		return 0, errors.NilPointer(errors.PhaseDispatch, nil, "vtable")
	}
	b, ok := s.vtables[vt]
	if !ok || b.class.layout.VPtrOffsets[b.index]+b.base != p.addr {
		return 0, errors.New(errors.PhaseDispatch, errors.KindInvalidData).
			Value(p.addr).
			Detail("pointer 0x%x is not a live interface pointer", p.addr).
			Build()
	}
	n := len(b.class.layout.Interfaces[b.index].Slots)
	if slot < 0 || slot >= n {
		return 0, errors.OutOfBounds(errors.PhaseDispatch, []string{b.class.Name()}, slot, n)
	}
	fn, err := s.readPtr(vt + uint32(slot)*s.width)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseDispatch, errors.KindOutOfBounds, err, "read vtable slot")
	}
	return fn, nil
}

// Invoke calls vtable slot with the flat arguments following the self
// pointer and returns the flat results.
func (p Ptr) Invoke(ctx context.Context, slot int, args ...uint64) ([]uint64, error) {
	fn, err := p.Slot(slot)
	if err != nil {
		return nil, err
	}
	params := make([]uint64, 0, len(args)+1)
	params = append(params, uint64(p.addr))
	params = append(params, args...)
	return p.space.table.Call(ctx, p.space.module, fn, params...)
}

// AddRef adds a reference and returns the new count.
func (p Ptr) AddRef(ctx context.Context) (uint32, error) {
	res, err := p.Invoke(ctx, iface.SlotAddRef)
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil
}

// Release drops a reference and returns the new count. p must not be used
// once the count reaches zero.
func (p Ptr) Release(ctx context.Context) (uint32, error) {
	res, err := p.Invoke(ctx, iface.SlotRelease)
	if err != nil {
		return 0, err
	}
	return uint32(res[0]), nil
}

// QueryInterface asks the object for interface id. A failure status is
// returned as an hresult.HRESULT error, so errors.Is(err,
// hresult.E_NOINTERFACE) works.
func (p Ptr) QueryInterface(ctx context.Context, id iid.IID) (Ptr, error) {
	if p.space == nil {
		return Ptr{}, errors.NilPointer(errors.PhaseQuery, nil, "interface pointer")
	}
	s := p.space
	riid := s.scratch
	ppv := s.scratch + iid.Size

	if err := s.WriteIID(riid, id); err != nil {
		return Ptr{}, errors.Wrap(errors.PhaseQuery, errors.KindOutOfBounds, err, "write identifier")
	}
	res, err := p.Invoke(ctx, iface.SlotQueryInterface, uint64(riid), uint64(ppv))
	if err != nil {
		return Ptr{}, err
	}
	if hr := hresult.FromUint64(res[0]); hr.Failed() {
		return Ptr{space: s}, hr
	}
	out, err := s.readPtr(ppv)
	if err != nil {
		return Ptr{}, errors.Wrap(errors.PhaseQuery, errors.KindOutOfBounds, err, "read result pointer")
	}
	return Ptr{space: s, addr: out}, nil
}

// Object resolves p to the object it points into.
func (p Ptr) Object() (*Object, bool) {
	if p.space == nil {
		return nil, false
	}
	obj, _, ok := p.space.Resolve(p.addr)
	return obj, ok
}

// GetInterface queries p for id and wraps the result with wrap, typically
// a generated stub constructor. The wrapped pointer carries one reference.
func GetInterface[T any](ctx context.Context, p Ptr, id iid.IID, wrap func(Ptr) T) (T, error) {
	var zero T
	q, err := p.QueryInterface(ctx, id)
	if err != nil {
		return zero, err
	}
	return wrap(q), nil
}

// BoolArg flattens a bool argument for Invoke.
func BoolArg(v bool) uint64 {
	if v {
		return 1
	}
	return 0
}

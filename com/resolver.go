package com

import (
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iid"
)

// query answers a query-interface call made through interface index.
//
// IUnknown yields the same pointer. Any other identifier yields the first
// implemented interface, in declaration order, whose chain contains it.
// Success adds one reference; failure stores null into *ppv and leaves the
// count alone.
func (c *Class) query(ptr uint32, index int, riid, ppv uint32) hresult.HRESULT {
	s := c.space
	base := c.recoverBase(ptr, index)

	if ppv == 0 {
		return c.queried(ptr, base, iid.Nil, hresult.E_POINTER)
	}
	if riid == 0 {
		return c.queried(ptr, base, iid.Nil, hresult.E_INVALIDARG)
	}
	id, err := s.ReadIID(riid)
	if err != nil {
		return c.queried(ptr, base, iid.Nil, hresult.E_INVALIDARG)
	}

	var out uint32
	if id == iid.IUnknown {
		out = ptr
	} else if j, ok := c.layout.IndexOf(id); ok {
		out = base + c.layout.VPtrOffsets[j]
	} else {
		if err := s.writePtr(ppv, 0); err != nil {
			return c.queried(ptr, base, id, hresult.E_POINTER)
		}
		return c.queried(ptr, base, id, hresult.E_NOINTERFACE)
	}

	if err := s.writePtr(ppv, out); err != nil {
		return c.queried(ptr, base, id, hresult.E_POINTER)
	}
	c.increment(base)
	return c.queried(ptr, base, id, hresult.S_OK)
}

func (c *Class) queried(ptr, base uint32, id iid.IID, hr hresult.HRESULT) hresult.HRESULT {
	c.space.emit(Event{
		Type:  EventQuery,
		Class: c.Name(),
		Ptr:   ptr,
		Base:  base,
		IID:   id,
		HR:    hr,
		Count: c.loadCount(base),
	})
	return hr
}

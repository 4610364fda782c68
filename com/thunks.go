package com

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-com/dispatch"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
)

// bind adds one thunk per vtable slot per implemented interface to the
// function table. The IUnknown thunks of interface i recover the base with
// the offset of i and delegate to the shared lifetime and resolver code, so
// every interface pointer of an object behaves identically for them.
func (c *Class) bind() {
	t := c.space.table
	c.slots = make([][]uint32, len(c.layout.Interfaces))

	for i, vt := range c.layout.Interfaces {
		indices := make([]uint32, len(vt.Slots))
		for _, slot := range vt.Slots {
			var h api.GoModuleFunc
			switch slot.Index {
			case iface.SlotQueryInterface:
				h = c.queryThunk(i)
			case iface.SlotAddRef:
				h = c.addRefThunk(i)
			case iface.SlotRelease:
				h = c.releaseThunk(i)
			default:
				h = c.methodThunk(i, slot)
			}
			indices[slot.Index] = t.Add(&dispatch.Func{
				Handler:     h,
				Name:        c.Name() + "::" + vt.Interface.Name + "." + slot.Method.Name,
				ParamTypes:  slot.ParamTypes,
				ResultTypes: slot.ResultTypes,
			})
		}
		c.slots[i] = indices
	}
}

func (c *Class) queryThunk(index int) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		ptr := uint32(stack[0])
		hr := c.query(ptr, index, uint32(stack[1]), uint32(stack[2]))
		stack[0] = hr.Uint64()
	}
}

func (c *Class) addRefThunk(index int) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(c.addRef(uint32(stack[0]), index))
	}
}

func (c *Class) releaseThunk(index int) api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		stack[0] = uint64(c.release(uint32(stack[0]), index))
	}
}

func (c *Class) methodThunk(index int, slot iface.Slot) api.GoModuleFunc {
	body, _ := c.def.Body(slot.Owner, slot.Method.Name)
	nparams := len(slot.ParamTypes) - 1
	nresults := len(slot.ResultTypes)

	return func(ctx context.Context, _ api.Module, stack []uint64) {
		base := c.recoverBase(uint32(stack[0]), index)
		params := append([]uint64(nil), stack[1:1+nparams]...)

		results := body(ctx, &Object{class: c, base: base}, params)
		if len(results) != nresults {
			c.space.fatal(errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
				Class(c.Name()).
				Interface(slot.Owner.Name).
				Path(slot.Method.Name).
				Detail("body returned %d results, signature has %d", len(results), nresults).
				Build())
		}
		copy(stack, results)
	}
}

package com

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/arena"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

var (
	ICounter = iface.Define("ICounter", iid.MustParse("6a3d2e10-0000-4000-8000-000000000001"), nil,
		iface.Method{Name: "add", Params: []iface.Param{iface.Arg("delta", wit.U32{})}, Result: wit.U32{}},
	)
	IReset = iface.Define("IReset", iid.MustParse("6a3d2e10-0000-4000-8000-000000000002"), nil,
		iface.Method{Name: "reset", Result: iface.HRESULT},
	)
	IUnused = iface.Define("IUnused", iid.MustParse("6a3d2e10-0000-4000-8000-000000000003"), nil)

	IShape = iface.Define("IShape", iid.MustParse("6a3d2e10-0000-4000-8000-000000000010"), nil,
		iface.Method{Name: "area", Result: wit.F64{}},
	)
	ICircle = iface.Define("ICircle", iid.MustParse("6a3d2e10-0000-4000-8000-000000000011"), IShape,
		iface.Method{Name: "radius", Result: wit.F64{}},
	)
	ISquare = iface.Define("ISquare", iid.MustParse("6a3d2e10-0000-4000-8000-000000000012"), IShape,
		iface.Method{Name: "side", Result: wit.F64{}},
	)
)

func addBody(_ context.Context, obj *Object, params []uint64) []uint64 {
	v, err := obj.Uint32("value")
	if err != nil {
		panic(err)
	}
	v += uint32(params[0])
	if err := obj.SetUint32("value", v); err != nil {
		panic(err)
	}
	return []uint64{uint64(v)}
}

func resetBody(_ context.Context, obj *Object, _ []uint64) []uint64 {
	if err := obj.SetUint32("value", 0); err != nil {
		panic(err)
	}
	return []uint64{0}
}

func counterDef(t *testing.T) *Definition {
	t.Helper()
	def, err := Define("Counter").
		Implements(ICounter, IReset).
		Field("value", wit.U32{}).
		Method(ICounter, "add", addBody).
		Method(IReset, "reset", resetBody).
		Build()
	require.NoError(t, err)
	return def
}

func newTestSpace(t *testing.T, width uint32) *Space {
	t.Helper()
	s, err := NewSpace(&Config{PointerWidth: width})
	require.NoError(t, err)
	return s
}

func newCounter(t *testing.T, s *Space) (*Class, *Object) {
	t.Helper()
	class, ok := s.Class("Counter")
	if !ok {
		var err error
		class, err = s.Register(counterDef(t))
		require.NoError(t, err)
	}
	obj, err := class.New(uint32(7))
	require.NoError(t, err)
	return class, obj
}

// heapCounter records heap frees by address.
type heapCounter struct {
	frees map[uint32]int
}

func (h *heapCounter) OnHeapEvent(e arena.Event) {
	if e.Type == arena.EventFreed {
		h.frees[e.Ptr]++
	}
}

// panicValue runs fn and returns what it panicked with.
func panicValue(fn func()) (v any) {
	defer func() { v = recover() }()
	fn()
	return nil
}

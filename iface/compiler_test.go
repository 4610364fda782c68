package iface

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iid"
)

var (
	testAnimal = Define("IAnimal", iid.MustParse("eff8970e-c50f-45e0-9284-291ce5a6f771"), nil,
		Method{Name: "eat", Result: HRESULT},
	)
	testDomestic = Define("IDomesticAnimal", iid.MustParse("c22425df-efb2-4b85-933e-9cf7b23459e8"), testAnimal,
		Method{Name: "train", Result: HRESULT},
	)
	testCat = Define("ICat", iid.MustParse("f5353c58-cfd9-4204-8d92-d274c7578b53"), testAnimal,
		Method{Name: "ignore-humans", Result: HRESULT},
	)
)

func TestCompile_Root(t *testing.T) {
	c := NewCompiler(4)
	l, err := c.Compile(IUnknown)
	require.NoError(t, err)

	require.Len(t, l.Slots, RootSlots)
	assert.Equal(t, MethodQueryInterface, l.Slots[SlotQueryInterface].Method.Name)
	assert.Equal(t, MethodAddRef, l.Slots[SlotAddRef].Method.Name)
	assert.Equal(t, MethodRelease, l.Slots[SlotRelease].Method.Name)

	qi := l.Slots[SlotQueryInterface]
	assert.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeI32}, qi.ParamTypes)
	assert.Equal(t, []api.ValueType{api.ValueTypeI32}, qi.ResultTypes)
	assert.Equal(t, uint32(12), l.Size())
}

func TestCompile_InheritedFirst(t *testing.T) {
	c := NewCompiler(4)
	l, err := c.Compile(testDomestic)
	require.NoError(t, err)

	var names []string
	for _, s := range l.Slots {
		names = append(names, s.Method.Name)
	}
	assert.Equal(t, []string{"query-interface", "add-ref", "release", "eat", "train"}, names)

	for i, s := range l.Slots {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, uint32(i*4), s.Offset(4))
	}

	require.Len(t, l.Chain, 3)
	assert.Same(t, testDomestic, l.Chain[0])
	assert.Same(t, IUnknown, l.Chain[2])

	own := l.OwnSlots()
	require.Len(t, own, 1)
	assert.Equal(t, "train", own[0].Method.Name)
}

func TestCompile_SharedPrefix(t *testing.T) {
	c := NewCompiler(8)
	dom, err := c.Compile(testDomestic)
	require.NoError(t, err)
	cat, err := c.Compile(testCat)
	require.NoError(t, err)

	// both inherit IAnimal, so the first four slots match
	for i := 0; i < 4; i++ {
		assert.Equal(t, dom.Slots[i].Method.Name, cat.Slots[i].Method.Name)
		assert.Equal(t, dom.Slots[i].ParamTypes, cat.Slots[i].ParamTypes)
	}
	assert.Equal(t, api.ValueTypeI64, dom.Slots[0].ParamTypes[0], "width 8 self pointer is i64")
}

func TestCompile_Contains(t *testing.T) {
	c := NewCompiler(4)
	l, err := c.Compile(testCat)
	require.NoError(t, err)

	assert.True(t, l.Contains(testCat.IID))
	assert.True(t, l.Contains(testAnimal.IID))
	assert.True(t, l.Contains(iid.IUnknown))
	assert.False(t, l.Contains(testDomestic.IID))
}

func TestCompile_Cached(t *testing.T) {
	c := NewCompiler(4)
	a, err := c.Compile(testCat)
	require.NoError(t, err)
	b, err := c.Compile(testCat)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestCompile_Lookup(t *testing.T) {
	c := NewCompiler(4)
	l, err := c.Compile(testCat)
	require.NoError(t, err)

	s, ok := l.Lookup("ignore-humans")
	require.True(t, ok)
	assert.Equal(t, 4, s.Index)
	assert.Same(t, testCat, s.Owner)

	_, ok = l.Lookup("train")
	assert.False(t, ok)
}

func TestCompile_Errors(t *testing.T) {
	orphan := &Descriptor{Name: "IOrphan", IID: iid.MustParse("11111111-0000-0000-0000-000000000001")}
	fakeRoot := &Descriptor{Name: "IUnknown", IID: iid.IUnknown}
	impostor := &Descriptor{Name: "IImpostor", IID: iid.MustParse("11111111-0000-0000-0000-000000000002"), Parent: fakeRoot}

	cyclic := &Descriptor{Name: "ICycle", IID: iid.MustParse("11111111-0000-0000-0000-000000000003")}
	cyclic.Parent = cyclic

	dupIID := Define("IDupe", testAnimal.IID, testAnimal)
	dupMethod := Define("IEatAgain", iid.MustParse("11111111-0000-0000-0000-000000000004"), testAnimal,
		Method{Name: "eat", Result: HRESULT})
	stringParam := Define("IName", iid.MustParse("11111111-0000-0000-0000-000000000005"), nil,
		Method{Name: "set-name", Params: []Param{Arg("name", wit.String{})}, Result: HRESULT})
	wideResult := Define("IWide", iid.MustParse("11111111-0000-0000-0000-000000000006"), nil,
		Method{Name: "pair", Result: &wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U32{}, wit.U32{}}}}})
	unnamed := Define("IUnnamed", iid.MustParse("11111111-0000-0000-0000-000000000007"), nil, Method{})

	var many []Param
	for i := 0; i < 16; i++ {
		many = append(many, Arg("p", wit.U32{}))
	}
	tooMany := Define("IMany", iid.MustParse("11111111-0000-0000-0000-000000000008"), nil,
		Method{Name: "many", Params: many, Result: HRESULT})

	tests := []struct {
		name string
		desc *Descriptor
		kind errors.Kind
	}{
		{"nil", nil, errors.KindNilPointer},
		{"no root", orphan, errors.KindBrokenChain},
		{"impostor root", impostor, errors.KindBrokenChain},
		{"cycle", cyclic, errors.KindDuplicate},
		{"duplicate iid", dupIID, errors.KindDuplicate},
		{"duplicate method", dupMethod, errors.KindDuplicate},
		{"string param", stringParam, errors.KindUnsupported},
		{"wide result", wideResult, errors.KindUnsupported},
		{"unnamed method", unnamed, errors.KindInvalidInput},
		{"too many params", tooMany, errors.KindUnsupported},
	}

	c := NewCompiler(4)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.desc)
			require.Error(t, err)
			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, tt.kind, e.Kind, "error: %v", err)
		})
	}
}

func TestCompile_BadWidth(t *testing.T) {
	_, err := NewCompiler(2).Compile(IUnknown)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testDomestic))
	require.NoError(t, r.Register(testDomestic), "re-registering is a no-op")

	d, ok := r.Lookup(testAnimal.IID)
	require.True(t, ok, "ancestors are registered too")
	assert.Same(t, testAnimal, d)

	d, ok = r.ByName("IUnknown")
	require.True(t, ok)
	assert.Same(t, IUnknown, d)

	clash := Define("IOther", testDomestic.IID, nil)
	err := r.Register(clash)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &errors.Error{Phase: errors.PhaseDefine, Kind: errors.KindDuplicate}))

	sameName := Define("IAnimal", iid.MustParse("22222222-0000-0000-0000-000000000001"), nil)
	assert.Error(t, r.Register(sameName))

	names := []string{}
	for _, d := range r.All() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"IAnimal", "IDomesticAnimal", "IUnknown"}, names)
}

func TestRegistry_AllOrNothing(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testAnimal))

	fresh := Define("IFresh", iid.MustParse("33333333-0000-0000-0000-000000000001"), nil)
	clash := Define("IClash", testAnimal.IID, nil)
	err := r.RegisterAll(fresh, clash)
	require.Error(t, err)
	_, ok := r.Lookup(fresh.IID)
	assert.False(t, ok)

	twin := Define("IFresh", iid.MustParse("33333333-0000-0000-0000-000000000002"), nil)
	assert.Error(t, r.RegisterAll(fresh, twin), "names clash within one call")
	_, ok = r.ByName("IFresh")
	assert.False(t, ok)

	require.NoError(t, r.RegisterAll(fresh, testDomestic))
	_, ok = r.Lookup(testDomestic.IID)
	assert.True(t, ok)
}

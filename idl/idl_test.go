package idl

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

const animals = `{
  "interfaces": [
    {
      "name": "ICat",
      "iid": "f5353c58-cfd9-4204-8d92-d274c7578b53",
      "parent": "IAnimal",
      "methods": [{"name": "ignore-humans", "result": "hresult"}]
    },
    {
      "name": "IAnimal",
      "iid": "eff8970e-c50f-45e0-9284-291ce5a6f771",
      "methods": [
        {"name": "eat", "result": "hresult"},
        {"name": "feed", "params": [{"name": "food", "type": "ptr"}, {"name": "amount", "type": "u32"}], "result": "hresult"},
        {"name": "weight", "result": "f64"},
        {"name": "nap", "result": null}
      ]
    }
  ],
  "classes": [
    {
      "name": "Cat",
      "clsid": "c5f45cbc-4439-418c-a9f9-05ac67525e43",
      "implements": ["ICat"],
      "fields": [{"name": "num-owners", "type": "u32"}, {"name": "indoor", "type": "bool"}]
    }
  ],
  "comment": "ignored"
}`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(animals))
	require.NoError(t, err)
	require.Len(t, f.Interfaces, 2)

	cat, ok := f.Interface("ICat")
	require.True(t, ok)
	animal, ok := f.Interface("IAnimal")
	require.True(t, ok)
	assert.Same(t, animal, cat.Parent, "parent declared after child")
	assert.Same(t, iface.IUnknown, animal.Parent)
	assert.Equal(t, "eff8970e-c50f-45e0-9284-291ce5a6f771", animal.IID.String())

	require.Len(t, animal.Methods, 4)
	feed := animal.Methods[1]
	assert.True(t, feed.Params[0].Ptr)
	assert.Equal(t, wit.U32{}, feed.Params[1].Type)
	assert.Equal(t, wit.S32{}, feed.Result)
	assert.Equal(t, wit.F64{}, animal.Methods[2].Result)
	assert.Nil(t, animal.Methods[3].Result)

	c, ok := f.Class("Cat")
	require.True(t, ok)
	assert.Equal(t, "c5f45cbc-4439-418c-a9f9-05ac67525e43", c.CLSID.String())
	assert.Equal(t, []*iface.Descriptor{cat}, c.Implements)
	assert.Equal(t, []Field{{Name: "num-owners", Type: wit.U32{}}, {Name: "indoor", Type: wit.Bool{}}}, c.Fields)

	_, err = iface.NewCompiler(4).Compile(cat)
	assert.NoError(t, err)
}

func TestClass_Define(t *testing.T) {
	f, err := Parse([]byte(animals))
	require.NoError(t, err)
	c, _ := f.Class("Cat")
	animal, _ := f.Interface("IAnimal")
	cat, _ := f.Interface("ICat")

	ok := func(context.Context, *com.Object, []uint64) []uint64 { return []uint64{0} }
	def, err := c.Define().
		Method(animal, "eat", ok).
		Method(animal, "feed", ok).
		Method(animal, "weight", ok).
		Method(animal, "nap", func(context.Context, *com.Object, []uint64) []uint64 { return nil }).
		Method(cat, "ignore-humans", ok).
		Build()
	require.NoError(t, err)

	l, err := def.Layout(4)
	require.NoError(t, err)
	assert.Len(t, l.Fields, 2)
	assert.Equal(t, uint32(8), l.Fields[0].Offset)
}

func TestParse_Known(t *testing.T) {
	base := iface.Define("IBase", iid.MustParse("42000000-0000-0000-0000-000000000000"), nil)
	doc := `{"interfaces": [{"name": "IChild", "iid": "00000000-0000-0000-0000-0000000000aa", "parent": "IBase"}],
	         "classes": [{"name": "X", "implements": ["IBase", "IChild"]}]}`

	f, err := Parse([]byte(doc), base)
	require.NoError(t, err)
	child, _ := f.Interface("IChild")
	assert.Same(t, base, child.Parent)
	assert.Len(t, f.Classes[0].Implements, 2)
	assert.True(t, f.Classes[0].CLSID.IsNil())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		kind errors.Kind
	}{
		{"bad json", `{"interfaces": [`, errors.KindInvalidData},
		{"unknown type", `{"interfaces": [{"name": "I", "iid": "00000000-0000-0000-0000-000000000001", "methods": [{"name": "m", "result": "string"}]}]}`, errors.KindInvalidData},
		{"ptr result", `{"interfaces": [{"name": "I", "iid": "00000000-0000-0000-0000-000000000001", "methods": [{"name": "m", "result": "ptr"}]}]}`, errors.KindInvalidData},
		{"bad iid", `{"interfaces": [{"name": "I", "iid": "nope"}]}`, errors.KindInvalidData},
		{"no name", `{"interfaces": [{"iid": "00000000-0000-0000-0000-000000000001"}]}`, errors.KindInvalidData},
		{"unknown parent", `{"interfaces": [{"name": "I", "iid": "00000000-0000-0000-0000-000000000001", "parent": "IMissing"}]}`, errors.KindNotFound},
		{"duplicate name", `{"interfaces": [
			{"name": "I", "iid": "00000000-0000-0000-0000-000000000001"},
			{"name": "I", "iid": "00000000-0000-0000-0000-000000000002"}]}`, errors.KindDuplicate},
		{"redeclared root", `{"interfaces": [{"name": "IUnknown", "iid": "00000000-0000-0000-0000-000000000001"}]}`, errors.KindDuplicate},
		{"duplicate iid", `{"interfaces": [
			{"name": "A", "iid": "00000000-0000-0000-0000-000000000001"},
			{"name": "B", "iid": "00000000-0000-0000-0000-000000000001"}]}`, errors.KindRegistration},
		{"cycle", `{"interfaces": [
			{"name": "A", "iid": "00000000-0000-0000-0000-000000000001", "parent": "B"},
			{"name": "B", "iid": "00000000-0000-0000-0000-000000000002", "parent": "A"}]}`, errors.KindRegistration},
		{"unknown implemented", `{"classes": [{"name": "C", "implements": ["IMissing"]}]}`, errors.KindNotFound},
		{"bad clsid", `{"classes": [{"name": "C", "clsid": "x"}]}`, errors.KindInvalidData},
		{"ptr field", `{"classes": [{"name": "C", "fields": [{"name": "p", "type": "ptr"}]}]}`, errors.KindUnsupported},
		{"bad field type", `{"classes": [{"name": "C", "fields": [{"name": "p", "type": "list"}]}]}`, errors.KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, errors.PhaseParse, e.Phase)
			assert.Equal(t, tt.kind, e.Kind, "error: %v", err)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	f, err := Parse([]byte(animals))
	require.NoError(t, err)

	again, err := Parse(Encode(f))
	require.NoError(t, err)

	require.Len(t, again.Interfaces, len(f.Interfaces))
	for i, d := range f.Interfaces {
		got := again.Interfaces[i]
		assert.Equal(t, d.Name, got.Name)
		assert.Equal(t, d.IID, got.IID)
		assert.Equal(t, d.Parent.Name, got.Parent.Name)
		assert.Equal(t, d.Methods, got.Methods)
	}
	c, _ := again.Class("Cat")
	assert.Equal(t, "c5f45cbc-4439-418c-a9f9-05ac67525e43", c.CLSID.String())
	assert.Len(t, c.Fields, 2)
}

func TestParseType(t *testing.T) {
	for name, want := range scalars {
		got, ptr, err := ParseType(name)
		require.NoError(t, err)
		assert.False(t, ptr)
		assert.Equal(t, want, got)
		assert.Equal(t, name, TypeName(got))
	}
	_, ptr, err := ParseType(TypePtr)
	require.NoError(t, err)
	assert.True(t, ptr)
	assert.Equal(t, "", TypeName(wit.String{}))
}

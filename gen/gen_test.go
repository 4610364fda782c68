package gen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

var (
	testFood = iface.Define("IFood", iid.MustParse("14f486bf-408d-43be-8a34-bbfa56980a37"), nil,
		iface.Method{Name: "consume-food", Params: []iface.Param{iface.Arg("amount", wit.U32{})}, Result: iface.HRESULT},
	)
	testAnimal = iface.Define("IAnimal", iid.MustParse("eff8970e-c50f-45e0-9284-291ce5a6f771"), nil,
		iface.Method{Name: "eat", Params: []iface.Param{iface.PtrArg("food")}, Result: iface.HRESULT},
		iface.Method{Name: "weight", Result: wit.F64{}},
	)
	testCat = iface.Define("ICat", iid.MustParse("f5353c58-cfd9-4204-8d92-d274c7578b53"), testAnimal,
		iface.Method{Name: "ignore-humans", Params: []iface.Param{
			iface.Arg("type", wit.Bool{}),
			iface.Arg("delta", wit.S16{}),
		}},
	)
)

func generate(t *testing.T, ds ...*iface.Descriptor) string {
	t.Helper()
	src, err := Generate(ds, Options{Package: "zoo", Generator: "gen_test"})
	require.NoError(t, err)

	_, err = parser.ParseFile(token.NewFileSet(), "zoo.go", src, parser.AllErrors)
	require.NoError(t, err)
	return string(src)
}

func TestGenerate_Header(t *testing.T) {
	out := generate(t, testFood)

	assert.Contains(t, out, "// Code generated by gen_test. DO NOT EDIT.")
	assert.Contains(t, out, "package zoo")
	assert.Contains(t, out, `"github.com/wippyai/wasm-com/com"`)
	assert.Contains(t, out, `"github.com/wippyai/wasm-com/hresult"`)
	assert.NotContains(t, out, `"github.com/tetratelabs/wazero/api"`)
}

func TestGenerate_Interface(t *testing.T) {
	out := generate(t, testFood)

	assert.Contains(t, out, `var IFoodIID = iid.MustParse("14f486bf-408d-43be-8a34-bbfa56980a37")`)
	assert.Contains(t, out, "type IFood struct {\n\tcom.Ptr\n}")
	assert.Contains(t, out, "func NewIFood(p com.Ptr) IFood {")
	assert.Contains(t, out, "func QueryIFood(ctx context.Context, p com.Ptr) (IFood, error) {")
	assert.Contains(t, out, "return com.GetInterface(ctx, p, IFoodIID, NewIFood)")
	assert.Contains(t, out, "func (x IFood) ConsumeFood(ctx context.Context, amount uint32) (hresult.HRESULT, error) {")
	assert.Contains(t, out, "x.Ptr.Invoke(ctx, 3, uint64(amount))")
	assert.Contains(t, out, "return hresult.FromUint64(res[0]), nil")
}

func TestGenerate_InheritedSlots(t *testing.T) {
	out := generate(t, testCat)

	assert.Contains(t, out, "func (x ICat) Eat(ctx context.Context, food uint32) (hresult.HRESULT, error) {")
	assert.Contains(t, out, "x.Ptr.Invoke(ctx, 3, uint64(food))")
	assert.Contains(t, out, "func (x ICat) Weight(ctx context.Context) (float64, error) {")
	assert.Contains(t, out, "x.Ptr.Invoke(ctx, 4)")
	assert.Contains(t, out, "return api.DecodeF64(res[0]), nil")

	// keywords get a suffix; no-result methods only return an error
	assert.Contains(t, out, "func (x ICat) IgnoreHumans(ctx context.Context, typeArg bool, delta int16) error {")
	assert.Contains(t, out, "x.Ptr.Invoke(ctx, 5, com.BoolArg(typeArg), api.EncodeI32(int32(delta)))")
	assert.Contains(t, out, `"github.com/tetratelabs/wazero/api"`)
	assert.NotContains(t, out, "type IAnimal struct")
}

func TestGenerate_SkipsRoot(t *testing.T) {
	out := generate(t, iface.IUnknown, testFood)

	assert.NotContains(t, out, "IUnknown")
	assert.NotContains(t, out, "QueryInterface(")
}

func TestGenerate_Errors(t *testing.T) {
	record := iface.Define("IRecord", iid.MustParse("0e3b4a3c-6f5e-4d69-9a52-55b1cbd0a0f1"), nil,
		iface.Method{Name: "set", Params: []iface.Param{iface.Arg("v", &wit.TypeDef{Kind: &wit.Record{
			Fields: []wit.Field{{Name: "a", Type: wit.U32{}}},
		}})}},
	)
	orphan := &iface.Descriptor{Name: "IOrphan", IID: iid.MustParse("5a0fd8a6-1d3e-4f54-8c1b-7b62b6e6f0a2")}

	tests := []struct {
		name string
		ds   []*iface.Descriptor
		opts Options
		kind errors.Kind
	}{
		{"empty package", []*iface.Descriptor{testFood}, Options{}, errors.KindInvalidInput},
		{"keyword package", []*iface.Descriptor{testFood}, Options{Package: "func"}, errors.KindInvalidInput},
		{"duplicate type", []*iface.Descriptor{testFood, testFood}, Options{Package: "zoo"}, errors.KindDuplicate},
		{"composite param", []*iface.Descriptor{record}, Options{Package: "zoo"}, errors.KindUnsupported},
		{"broken chain", []*iface.Descriptor{orphan}, Options{Package: "zoo"}, errors.KindBrokenChain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.ds, tt.opts)
			require.Error(t, err)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, errors.PhaseGenerate, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
		})
	}
}

func TestArgName(t *testing.T) {
	assert.Equal(t, "numOwners", argName("num-owners", 0))
	assert.Equal(t, "rangeArg", argName("range", 0))
	assert.Equal(t, "ctxArg", argName("ctx", 0))
	assert.Equal(t, "arg2", argName("", 2))
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"IFood", "IFood"},
		{"IDomesticAnimal", "IDomesticAnimal"},
		{"ICat", "ICat"},
		{"consume-food", "ConsumeFood"},
		{"eat", "Eat"},
		{"i_shape", "IShape"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exportedName(tt.in), tt.in)
	}
}

func TestGenerate_KeepsInterfaceAcronyms(t *testing.T) {
	out := generate(t, testAnimal, testCat)
	assert.Contains(t, out, "type ICat struct {")
	assert.Contains(t, out, "var IAnimalIID = ")
	assert.NotContains(t, out, "Icat")
	assert.NotContains(t, out, "Ianimal")
}

package abi

import (
	"math"
	"testing"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

func TestAlignTo(t *testing.T) {
	tests := []struct {
		offset, align, want uint32
	}{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 8, 8},
		{7, 0, 7},
		{13, 1, 13},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.offset, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d", tt.offset, tt.align, got, tt.want)
		}
	}
}

func TestSafeArithmetic(t *testing.T) {
	if _, ok := SafeAddU32(math.MaxUint32, 1); ok {
		t.Error("SafeAddU32 should detect overflow")
	}
	if v, ok := SafeAddU32(1, 2); !ok || v != 3 {
		t.Errorf("SafeAddU32(1,2) = %d, %v", v, ok)
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, v := range []uint32{1, 2, 4, 8, 1 << 31} {
		if !IsPowerOfTwo(v) {
			t.Errorf("%d should be a power of two", v)
		}
	}
	for _, v := range []uint32{0, 3, 6, 12} {
		if IsPowerOfTwo(v) {
			t.Errorf("%d should not be a power of two", v)
		}
	}
}

func TestPointerType(t *testing.T) {
	if PointerType(4) != api.ValueTypeI32 {
		t.Error("width 4 should be i32")
	}
	if PointerType(8) != api.ValueTypeI64 {
		t.Error("width 8 should be i64")
	}
}

func TestFlatten(t *testing.T) {
	i32, i64, f32, f64 := api.ValueTypeI32, api.ValueTypeI64, api.ValueTypeF32, api.ValueTypeF64

	tests := []struct {
		name string
		typ  wit.Type
		want []api.ValueType
	}{
		{"u32", wit.U32{}, []api.ValueType{i32}},
		{"s64", wit.S64{}, []api.ValueType{i64}},
		{"f32", wit.F32{}, []api.ValueType{f32}},
		{"f64", wit.F64{}, []api.ValueType{f64}},
		{"record", &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
			{Name: "x", Type: wit.U8{}},
			{Name: "y", Type: wit.F64{}},
		}}}, []api.ValueType{i32, f64}},
		{"option", &wit.TypeDef{Kind: &wit.Option{Type: wit.F32{}}}, []api.ValueType{i32, f32}},
		{"result_join", &wit.TypeDef{Kind: &wit.Result{OK: wit.F32{}, Err: wit.U32{}}}, []api.ValueType{i32, i32}},
		{"variant_widen", &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
			{Name: "a", Type: wit.U32{}},
			{Name: "b", Type: wit.F64{}},
		}}}, []api.ValueType{i32, i64}},
		{"enum", &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "x"}}}}, []api.ValueType{i32}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.typ)
			if err != nil {
				t.Fatalf("Flatten failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Flatten = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("flat[%d] = %s, want %s", i, api.ValueTypeName(got[i]), api.ValueTypeName(tt.want[i]))
				}
			}
		})
	}
}

func TestFlatten_Rejects(t *testing.T) {
	rejected := []wit.Type{
		wit.String{},
		&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}},
		&wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{{Name: "s", Type: wit.String{}}}}},
	}
	for _, typ := range rejected {
		if _, err := Flatten(typ); err == nil {
			t.Errorf("Flatten(%T) should fail", typ)
		}
	}
}

func TestFlattenAll(t *testing.T) {
	flat, err := FlattenAll([]wit.Type{wit.U32{}, wit.U64{}})
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 2 || flat[1] != api.ValueTypeI64 {
		t.Errorf("FlattenAll = %v", flat)
	}
	if nilFlat, err := Flatten(nil); err != nil || nilFlat != nil {
		t.Errorf("Flatten(nil) = %v, %v", nilFlat, err)
	}
}

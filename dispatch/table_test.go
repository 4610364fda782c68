package dispatch

import (
	"context"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestTable_NullEntry(t *testing.T) {
	tbl := NewTable()
	if tbl.Get(0) != nil {
		t.Error("index 0 must be null")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
	if _, err := tbl.Call(context.Background(), nil, 0); err == nil {
		t.Error("calling null should fail")
	}
	if _, err := tbl.Call(context.Background(), nil, 42); err == nil {
		t.Error("calling out of range should fail")
	}
}

func TestTable_Call(t *testing.T) {
	tbl := NewTable()
	add := &Func{
		Name: "add",
		Handler: func(ctx context.Context, mod api.Module, stack []uint64) {
			stack[0] = stack[0] + stack[1]
		},
		ParamTypes:  []api.ValueType{api.ValueTypeI32, api.ValueTypeI32},
		ResultTypes: []api.ValueType{api.ValueTypeI32},
	}
	idx := tbl.Add(add)
	if idx != 1 {
		t.Errorf("first index = %d, want 1", idx)
	}

	res, err := tbl.Call(context.Background(), nil, idx, 2, 3)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if len(res) != 1 || res[0] != 5 {
		t.Errorf("Call = %v, want [5]", res)
	}

	if _, err := tbl.Call(context.Background(), nil, idx, 1); err == nil {
		t.Error("wrong arity should fail")
	}
}

func TestFunc_StackSize(t *testing.T) {
	f := &Func{
		ParamTypes:  []api.ValueType{api.ValueTypeI32},
		ResultTypes: []api.ValueType{api.ValueTypeI32, api.ValueTypeI64},
	}
	if f.StackSize() != 2 {
		t.Errorf("StackSize = %d, want 2", f.StackSize())
	}
	if got := f.Signature(); got != "(i32) -> (i32, i64)" {
		t.Errorf("Signature = %q", got)
	}

	noResult := &Func{ParamTypes: []api.ValueType{api.ValueTypeI64}}
	if got := noResult.Signature(); got != "(i64) -> ()" {
		t.Errorf("Signature = %q", got)
	}
}

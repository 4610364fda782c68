// Package dispatch implements the function table that vtable slots point
// into.
//
// A function pointer is an index into a Table, the same way a WebAssembly
// funcref table backs call_indirect. Index 0 is reserved as the null
// function pointer. Every entry uses the uniform calling convention of
// wazero host functions: stack[0] holds the self pointer and the flattened
// parameters follow; results are written back starting at stack[0].
package dispatch

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-com/errors"
)

// Func is one callable entry.
type Func struct {
	Handler     api.GoModuleFunc
	Name        string
	ParamTypes  []api.ValueType
	ResultTypes []api.ValueType
}

// StackSize returns the stack length needed to call f.
func (f *Func) StackSize() int {
	if len(f.ResultTypes) > len(f.ParamTypes) {
		return len(f.ResultTypes)
	}
	return len(f.ParamTypes)
}

// Table maps function indices to entries. It is not safe for concurrent use.
type Table struct {
	funcs []*Func
}

// NewTable creates a table with the null entry reserved.
func NewTable() *Table {
	return &Table{funcs: []*Func{nil}}
}

// Add appends f and returns its index.
func (t *Table) Add(f *Func) uint32 {
	t.funcs = append(t.funcs, f)
	return uint32(len(t.funcs) - 1)
}

// Get returns the entry at index, or nil for null and out-of-range indices.
func (t *Table) Get(index uint32) *Func {
	if index == 0 || uint64(index) >= uint64(len(t.funcs)) {
		return nil
	}
	return t.funcs[index]
}

// Len returns the number of entries including the null entry.
func (t *Table) Len() int {
	return len(t.funcs)
}

// Call invokes the entry at index with the given parameters and returns its
// results.
func (t *Table) Call(ctx context.Context, mod api.Module, index uint32, params ...uint64) ([]uint64, error) {
	f := t.Get(index)
	if f == nil {
		return nil, errors.New(errors.PhaseDispatch, errors.KindNilPointer).
			Value(index).
			Detail("function index %d is null or out of range (table size %d)", index, len(t.funcs)).
			Build()
	}
	if len(params) != len(f.ParamTypes) {
		return nil, errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
			Path(f.Name).
			Detail("expected %d flat parameters, got %d", len(f.ParamTypes), len(params)).
			Build()
	}

	stack := make([]uint64, f.StackSize())
	copy(stack, params)
	f.Handler(ctx, mod, stack)
	return stack[:len(f.ResultTypes)], nil
}

// Signature renders the flat signature of f, e.g. "(i32, i32) -> i32".
func (f *Func) Signature() string {
	return fmt.Sprintf("(%s) -> %s", typeList(f.ParamTypes), resultList(f.ResultTypes))
}

func typeList(types []api.ValueType) string {
	s := ""
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(t)
	}
	return s
}

func resultList(types []api.ValueType) string {
	if len(types) == 0 {
		return "()"
	}
	if len(types) == 1 {
		return api.ValueTypeName(types[0])
	}
	return "(" + typeList(types) + ")"
}

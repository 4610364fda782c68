package iface

import (
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iid"
	"github.com/wippyai/wasm-com/internal/abi"
)

// maxChainDepth bounds parent walks so cyclic descriptors fail fast.
const maxChainDepth = 64

// Slot is one resolved vtable entry.
type Slot struct {
	Owner       *Descriptor
	Method      Method
	ParamTypes  []api.ValueType // includes the self pointer
	ResultTypes []api.ValueType
	Index       int
}

// Offset returns the byte offset of the slot within the vtable.
func (s Slot) Offset(pointerWidth uint32) uint32 {
	return uint32(s.Index) * pointerWidth
}

// VTableLayout is the compiled layout of one interface.
type VTableLayout struct {
	Interface *Descriptor
	Chain     []*Descriptor // Interface first, IUnknown last
	Slots     []Slot        // inherited first
	Width     uint32
}

// Size returns the vtable size in bytes.
func (l *VTableLayout) Size() uint32 {
	return uint32(len(l.Slots)) * l.Width
}

// Contains reports whether id names any interface in the chain.
func (l *VTableLayout) Contains(id iid.IID) bool {
	for _, d := range l.Chain {
		if d.IID == id {
			return true
		}
	}
	return false
}

// Lookup finds a slot by method name.
func (l *VTableLayout) Lookup(name string) (Slot, bool) {
	for _, s := range l.Slots {
		if s.Method.Name == name {
			return s, true
		}
	}
	return Slot{}, false
}

// OwnSlots returns the slots declared by the interface itself.
func (l *VTableLayout) OwnSlots() []Slot {
	n := len(l.Interface.Methods)
	return l.Slots[len(l.Slots)-n:]
}

// Compiler compiles descriptors into vtable layouts for one pointer width.
type Compiler struct {
	cache sync.Map // *Descriptor -> *VTableLayout
	width uint32
}

// NewCompiler creates a compiler. Width must be 4 or 8.
func NewCompiler(pointerWidth uint32) *Compiler {
	return &Compiler{width: pointerWidth}
}

// Width returns the pointer width the compiler targets.
func (c *Compiler) Width() uint32 {
	return c.width
}

// Compile returns the layout of d, compiling it on first use.
func (c *Compiler) Compile(d *Descriptor) (*VTableLayout, error) {
	if c.width != 4 && c.width != 8 {
		return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
			Value(c.width).
			Detail("pointer width must be 4 or 8, got %d", c.width).
			Build()
	}
	if d == nil {
		return nil, errors.NilPointer(errors.PhaseLayout, nil, "interface descriptor")
	}
	if cached, ok := c.cache.Load(d); ok {
		return cached.(*VTableLayout), nil
	}

	layout, err := c.compile(d)
	if err != nil {
		return nil, err
	}
	actual, _ := c.cache.LoadOrStore(d, layout)
	return actual.(*VTableLayout), nil
}

// Chain returns d followed by its ancestors. It fails if the chain does not
// end at IUnknown, is cyclic, or repeats an identifier.
func Chain(d *Descriptor) ([]*Descriptor, error) {
	var chain []*Descriptor
	seen := make(map[iid.IID]string)

	for cur := d; cur != nil; cur = cur.Parent {
		if len(chain) == maxChainDepth {
			return nil, errors.New(errors.PhaseLayout, errors.KindBrokenChain).
				Interface(d.Name).
				Detail("inheritance chain deeper than %d (cycle?)", maxChainDepth).
				Build()
		}
		if prev, dup := seen[cur.IID]; dup {
			return nil, errors.New(errors.PhaseLayout, errors.KindDuplicate).
				Interface(d.Name).
				Value(cur.IID).
				Detail("identifier %s used by both %s and %s", cur.IID, prev, cur.Name).
				Build()
		}
		seen[cur.IID] = cur.Name
		chain = append(chain, cur)
	}

	if last := chain[len(chain)-1]; !last.IsRoot() {
		return nil, errors.New(errors.PhaseLayout, errors.KindBrokenChain).
			Interface(d.Name).
			Detail("inheritance chain ends at %s instead of IUnknown", last.Name).
			Build()
	}
	return chain, nil
}

func (c *Compiler) compile(d *Descriptor) (*VTableLayout, error) {
	chain, err := Chain(d)
	if err != nil {
		return nil, err
	}

	ptr := abi.PointerType(c.width)
	layout := &VTableLayout{
		Interface: d,
		Chain:     chain,
		Width:     c.width,
	}

	names := make(map[string]string)
	for i := len(chain) - 1; i >= 0; i-- {
		owner := chain[i]
		for _, m := range owner.Methods {
			if m.Name == "" {
				return nil, errors.New(errors.PhaseLayout, errors.KindInvalidInput).
					Interface(owner.Name).
					Detail("method without a name").
					Build()
			}
			if prev, dup := names[m.Name]; dup {
				return nil, errors.New(errors.PhaseLayout, errors.KindDuplicate).
					Interface(d.Name).
					Path(m.Name).
					Detail("method declared by both %s and %s", prev, owner.Name).
					Build()
			}
			names[m.Name] = owner.Name

			params, results, err := flatSignature(m, ptr)
			if err != nil {
				return nil, errors.New(errors.PhaseLayout, errors.KindUnsupported).
					Interface(owner.Name).
					Path(m.Name).
					Cause(err).
					Detail("method signature does not fit the calling convention").
					Build()
			}

			layout.Slots = append(layout.Slots, Slot{
				Index:       len(layout.Slots),
				Owner:       owner,
				Method:      m,
				ParamTypes:  params,
				ResultTypes: results,
			})
		}
	}

	return layout, nil
}

func flatSignature(m Method, ptr api.ValueType) (params, results []api.ValueType, err error) {
	params = []api.ValueType{ptr}
	for _, p := range m.Params {
		if p.Ptr {
			params = append(params, ptr)
			continue
		}
		if p.Type == nil {
			return nil, nil, errors.NilPointer(errors.PhaseLayout, []string{m.Name, p.Name}, "parameter type")
		}
		flat, err := abi.Flatten(p.Type)
		if err != nil {
			return nil, nil, err
		}
		params = append(params, flat...)
	}

	if len(params) > abi.MaxFlatParams {
		return nil, nil, errors.New(errors.PhaseLayout, errors.KindOverflow).
			Detail("%d flat parameters exceed the limit of %d", len(params), abi.MaxFlatParams).
			Build()
	}

	results, err = abi.Flatten(m.Result)
	if err != nil {
		return nil, nil, err
	}
	if len(results) > abi.MaxFlatResults {
		return nil, nil, errors.New(errors.PhaseLayout, errors.KindOverflow).
			Detail("%d flat results exceed the limit of %d", len(results), abi.MaxFlatResults).
			Build()
	}
	return params, results, nil
}

package com

import (
	"context"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
	"github.com/wippyai/wasm-com/internal/abi"
	"github.com/wippyai/wasm-com/internal/layout"
)

// MethodFunc is the body of one interface method. params holds the flat
// parameters after the self pointer; the returned slice holds the flat
// results and must match the method's result arity.
type MethodFunc func(ctx context.Context, obj *Object, params []uint64) []uint64

var compilers = map[uint32]*iface.Compiler{
	4: iface.NewCompiler(4),
	8: iface.NewCompiler(8),
}

func compilerFor(width uint32) *iface.Compiler {
	if c, ok := compilers[width]; ok {
		return c
	}
	return iface.NewCompiler(width)
}

type methodKey struct {
	owner *iface.Descriptor
	name  string
}

// Builder accumulates a class definition. Errors are collected and reported
// by Build.
type Builder struct {
	methods    map[methodKey]MethodFunc
	name       string
	interfaces []*iface.Descriptor
	fields     []layout.Field
	defaults   []any
	errs       []error
}

// Define starts a class definition.
func Define(name string) *Builder {
	return &Builder{
		name:    name,
		methods: make(map[methodKey]MethodFunc),
	}
}

// Implements appends interfaces. Declaration order fixes the dispatch
// pointer offsets and the order the resolver walks.
func (b *Builder) Implements(ds ...*iface.Descriptor) *Builder {
	b.interfaces = append(b.interfaces, ds...)
	return b
}

// Field appends a payload field.
func (b *Builder) Field(name string, t wit.Type) *Builder {
	b.fields = append(b.fields, layout.Field{Name: name, Type: t})
	return b
}

// Default sets the values New uses for trailing fields it is not given.
// Values are matched to fields in declaration order.
func (b *Builder) Default(values ...any) *Builder {
	b.defaults = append(b.defaults[:0], values...)
	return b
}

// Method sets the body of the method name declared by owner. One body
// serves every implemented interface that inherits owner.
func (b *Builder) Method(owner *iface.Descriptor, name string, fn MethodFunc) *Builder {
	if owner == nil {
		b.errs = append(b.errs, errors.NilPointer(errors.PhaseDefine, []string{name}, "method owner"))
		return b
	}
	if owner.IsRoot() {
		b.errs = append(b.errs, errors.New(errors.PhaseDefine, errors.KindInvalidInput).
			Class(b.name).
			Interface(owner.Name).
			Path(name).
			Detail("IUnknown methods are provided by the object model").
			Build())
		return b
	}
	if fn == nil {
		b.errs = append(b.errs, errors.NilPointer(errors.PhaseDefine, []string{owner.Name, name}, "method body"))
		return b
	}
	key := methodKey{owner: owner, name: name}
	if _, dup := b.methods[key]; dup {
		b.errs = append(b.errs, errors.Duplicate(errors.PhaseDefine, "method body", owner.Name+"."+name))
		return b
	}
	b.methods[key] = fn
	return b
}

// Build validates the definition. Every interface is compiled before any
// layout is computed, so a chain that does not reach IUnknown fails here.
func (b *Builder) Build() (*Definition, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	if b.name == "" {
		return nil, errors.InvalidInput(errors.PhaseDefine, "class name is empty")
	}
	if len(b.interfaces) == 0 {
		return nil, errors.New(errors.PhaseDefine, errors.KindInvalidInput).
			Class(b.name).
			Detail("class implements no interfaces").
			Build()
	}

	seen := make(map[iid.IID]bool)
	for _, d := range b.interfaces {
		if d == nil {
			return nil, errors.NilPointer(errors.PhaseDefine, []string{b.name}, "interface")
		}
		if d.IsRoot() {
			return nil, errors.New(errors.PhaseDefine, errors.KindInvalidInput).
				Class(b.name).
				Detail("IUnknown is implied and cannot be listed").
				Build()
		}
		if seen[d.IID] {
			return nil, errors.New(errors.PhaseDefine, errors.KindDuplicate).
				Class(b.name).
				Interface(d.Name).
				Detail("interface implemented twice").
				Build()
		}
		seen[d.IID] = true
	}

	def := &Definition{
		Name:       b.name,
		Interfaces: append([]*iface.Descriptor(nil), b.interfaces...),
		Fields:     append([]layout.Field(nil), b.fields...),
		Defaults:   append([]any(nil), b.defaults...),
		methods:    make(map[methodKey]MethodFunc, len(b.methods)),
		layouts:    make(map[uint32]*ObjectLayout),
	}
	for k, v := range b.methods {
		def.methods[k] = v
	}

	lay, err := def.Layout(4)
	if err != nil {
		return nil, err
	}
	if len(def.Defaults) > len(lay.Fields) {
		return nil, errors.New(errors.PhaseDefine, errors.KindInvalidInput).
			Class(b.name).
			Detail("%d defaults for %d fields", len(def.Defaults), len(lay.Fields)).
			Build()
	}
	for i, v := range def.Defaults {
		if _, err := encodeValue(lay.Fields[i], v); err != nil {
			return nil, errors.New(errors.PhaseDefine, errors.KindTypeMismatch).
				Class(b.name).
				Path(lay.Fields[i].Name).
				Cause(err).
				Build()
		}
	}

	// distinct descriptors across all chains must not share an identifier
	reg := iface.NewRegistry()
	for _, d := range def.Interfaces {
		if err := reg.Register(d); err != nil {
			return nil, errors.Registration(errors.PhaseDefine, "interface", d.Name, err)
		}
	}
	return def, nil
}

// Definition is a validated class shape: implemented interfaces, payload
// fields and method bodies.
type Definition struct {
	methods    map[methodKey]MethodFunc
	layouts    map[uint32]*ObjectLayout
	Name       string
	Interfaces []*iface.Descriptor
	Fields     []layout.Field
	Defaults   []any
	mu         sync.Mutex
}

// Body returns the method body for the method name declared by owner.
func (d *Definition) Body(owner *iface.Descriptor, name string) (MethodFunc, bool) {
	fn, ok := d.methods[methodKey{owner: owner, name: name}]
	return fn, ok
}

// Layout returns the object layout for a pointer width.
func (d *Definition) Layout(width uint32) (*ObjectLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.layouts[width]; ok {
		return l, nil
	}
	l, err := d.computeLayout(compilerFor(width))
	if err != nil {
		return nil, err
	}
	d.layouts[width] = l
	return l, nil
}

func (d *Definition) computeLayout(c *iface.Compiler) (*ObjectLayout, error) {
	width := c.Width()

	// compile everything first so no offsets exist for a broken class
	vts := make([]*iface.VTableLayout, len(d.Interfaces))
	for i, desc := range d.Interfaces {
		vt, err := c.Compile(desc)
		if err != nil {
			kind := errors.KindBrokenChain
			if e, ok := err.(*errors.Error); ok {
				kind = e.Kind
			}
			return nil, errors.New(errors.PhaseDefine, kind).
				Class(d.Name).
				Interface(desc.Name).
				Cause(err).
				Detail("interface does not compile").
				Build()
		}
		vts[i] = vt
	}

	used := make(map[methodKey]bool)
	for _, vt := range vts {
		for _, s := range vt.Slots[iface.RootSlots:] {
			key := methodKey{owner: s.Owner, name: s.Method.Name}
			if _, ok := d.methods[key]; !ok {
				return nil, errors.New(errors.PhaseDefine, errors.KindMissingMethod).
					Class(d.Name).
					Interface(s.Owner.Name).
					Path(s.Method.Name).
					Detail("no body for method").
					Build()
			}
			used[key] = true
		}
	}
	for key := range d.methods {
		if !used[key] {
			return nil, errors.New(errors.PhaseDefine, errors.KindNotFound).
				Class(d.Name).
				Interface(key.owner.Name).
				Path(key.name).
				Detail("body given for a method no implemented interface declares").
				Build()
		}
	}

	n := uint32(len(vts))
	lay := &ObjectLayout{
		Interfaces:  vts,
		VPtrOffsets: make([]uint32, n),
		Width:       width,
	}
	for i := range vts {
		lay.VPtrOffsets[i] = uint32(i) * width
	}
	lay.RefCountOffset = n * width

	names := make(map[string]bool, len(d.Fields))
	calc := layout.NewCalculator()
	for _, f := range d.Fields {
		if f.Name == "" {
			return nil, errors.New(errors.PhaseDefine, errors.KindInvalidInput).
				Class(d.Name).
				Detail("field without a name").
				Build()
		}
		if names[f.Name] {
			return nil, errors.Duplicate(errors.PhaseDefine, "field", f.Name)
		}
		names[f.Name] = true
		if f.Type == nil {
			return nil, errors.NilPointer(errors.PhaseDefine, []string{d.Name, f.Name}, "field type")
		}
		if info := calc.Calculate(f.Type); info.Unsupported {
			return nil, errors.New(errors.PhaseDefine, errors.KindUnsupported).
				Class(d.Name).
				Path(f.Name).
				Detail("field type %T cannot live in an object payload", f.Type).
				Build()
		}
	}

	rec := calc.Fields(lay.RefCountOffset+4, d.Fields)
	lay.Fields = make([]FieldLayout, len(rec.Fields))
	for i, p := range rec.Fields {
		lay.Fields[i] = FieldLayout{Name: p.Name, Type: p.Type, Offset: p.Offset, Size: p.Size, Align: p.Info.Align}
	}

	lay.Align = width
	if rec.Align > lay.Align {
		lay.Align = rec.Align
	}
	lay.Size = abi.AlignTo(rec.End, lay.Align)
	return lay, nil
}

// FieldLayout is one placed payload field.
type FieldLayout struct {
	Type   wit.Type
	Name   string
	Offset uint32
	Size   uint32
	Align  uint32
}

// ObjectLayout is the memory layout of a component object: one dispatch
// pointer per implemented interface, the shared reference count, then the
// payload.
type ObjectLayout struct {
	Interfaces     []*iface.VTableLayout
	VPtrOffsets    []uint32 // index -> offset of the dispatch pointer field
	Fields         []FieldLayout
	RefCountOffset uint32
	Size           uint32
	Align          uint32
	Width          uint32
}

// Offset returns the dispatch pointer offset of interface index, bounds
// checked.
func (l *ObjectLayout) Offset(index int) (uint32, bool) {
	if index < 0 || index >= len(l.VPtrOffsets) {
		return 0, false
	}
	return l.VPtrOffsets[index], true
}

// IndexOf returns the first implemented interface whose chain contains id.
// IUnknown matches no index; callers handle it separately.
func (l *ObjectLayout) IndexOf(id iid.IID) (int, bool) {
	for i, vt := range l.Interfaces {
		if vt.Contains(id) && id != iid.IUnknown {
			return i, true
		}
	}
	return 0, false
}

// Field returns a payload field by name.
func (l *ObjectLayout) Field(name string) (FieldLayout, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldLayout{}, false
}

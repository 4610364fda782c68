package idl

import (
	"github.com/go-faster/jx"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

// Field is one payload field of a class shape.
type Field struct {
	Type wit.Type
	Name string
}

// Class is the shape of a class: what it implements and what it stores.
// Method bodies are Go code and are attached to the builder from Define.
type Class struct {
	Name       string
	Implements []*iface.Descriptor
	Fields     []Field
	CLSID      iid.CLSID
}

// Define starts a com.Builder with the interfaces and fields of c.
func (c *Class) Define() *com.Builder {
	b := com.Define(c.Name).Implements(c.Implements...)
	for _, f := range c.Fields {
		b.Field(f.Name, f.Type)
	}
	return b
}

// File is a parsed definition file.
type File struct {
	Interfaces []*iface.Descriptor // declaration order
	Classes    []*Class
}

// Interface returns a declared interface by name.
func (f *File) Interface(name string) (*iface.Descriptor, bool) {
	for _, d := range f.Interfaces {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// Class returns a declared class by name.
func (f *File) Class(name string) (*Class, bool) {
	for _, c := range f.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

type rawParam struct {
	name string
	typ  string
}

type rawMethod struct {
	name   string
	result string
	params []rawParam
}

type rawInterface struct {
	name    string
	iid     string
	parent  string
	methods []rawMethod
}

type rawClass struct {
	name       string
	clsid      string
	implements []string
	fields     []rawParam
}

type rawFile struct {
	interfaces []rawInterface
	classes    []rawClass
}

// Parse decodes a definition file. Interfaces named in known (IUnknown is
// always known) may be used as parents and implemented interfaces without
// being declared.
func Parse(data []byte, known ...*iface.Descriptor) (*File, error) {
	var raw rawFile
	if err := raw.unmarshalJX(jx.DecodeBytes(data)); err != nil {
		return nil, errors.ParseFailed("definition file", err)
	}
	return raw.resolve(known)
}

func (f *rawFile) unmarshalJX(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "interfaces":
			return d.Arr(func(d *jx.Decoder) error {
				var it rawInterface
				if err := it.unmarshalJX(d); err != nil {
					return err
				}
				f.interfaces = append(f.interfaces, it)
				return nil
			})
		case "classes":
			return d.Arr(func(d *jx.Decoder) error {
				var c rawClass
				if err := c.unmarshalJX(d); err != nil {
					return err
				}
				f.classes = append(f.classes, c)
				return nil
			})
		default:
			return d.Skip()
		}
	})
}

func (it *rawInterface) unmarshalJX(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			it.name, err = d.Str()
		case "iid":
			it.iid, err = d.Str()
		case "parent":
			it.parent, err = d.Str()
		case "methods":
			return d.Arr(func(d *jx.Decoder) error {
				var m rawMethod
				if err := m.unmarshalJX(d); err != nil {
					return err
				}
				it.methods = append(it.methods, m)
				return nil
			})
		default:
			return d.Skip()
		}
		return err
	})
}

func (m *rawMethod) unmarshalJX(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			m.name, err = d.Str()
		case "result":
			if d.Next() == jx.Null {
				return d.Null()
			}
			m.result, err = d.Str()
		case "params":
			return d.Arr(func(d *jx.Decoder) error {
				var p rawParam
				if err := p.unmarshalJX(d); err != nil {
					return err
				}
				m.params = append(m.params, p)
				return nil
			})
		default:
			return d.Skip()
		}
		return err
	})
}

func (p *rawParam) unmarshalJX(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			p.name, err = d.Str()
		case "type":
			p.typ, err = d.Str()
		default:
			return d.Skip()
		}
		return err
	})
}

func (c *rawClass) unmarshalJX(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.name, err = d.Str()
		case "clsid":
			c.clsid, err = d.Str()
		case "implements":
			return d.Arr(func(d *jx.Decoder) error {
				s, err := d.Str()
				if err != nil {
					return err
				}
				c.implements = append(c.implements, s)
				return nil
			})
		case "fields":
			return d.Arr(func(d *jx.Decoder) error {
				var p rawParam
				if err := p.unmarshalJX(d); err != nil {
					return err
				}
				c.fields = append(c.fields, p)
				return nil
			})
		default:
			return d.Skip()
		}
		return err
	})
}

func (f *rawFile) resolve(known []*iface.Descriptor) (*File, error) {
	byName := map[string]*iface.Descriptor{iface.IUnknown.Name: iface.IUnknown}
	for _, d := range known {
		byName[d.Name] = d
	}

	out := &File{}
	parents := make([]string, len(f.interfaces))

	// first pass creates descriptors so parents may be declared later
	for i, raw := range f.interfaces {
		if raw.name == "" {
			return nil, errors.InvalidData(errors.PhaseParse, []string{"interfaces"}, "interface without a name")
		}
		if _, dup := byName[raw.name]; dup {
			return nil, errors.Duplicate(errors.PhaseParse, "interface", raw.name)
		}
		id, err := iid.Parse(raw.iid)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Interface(raw.name).
				Cause(err).
				Detail("bad iid %q", raw.iid).
				Build()
		}
		d := &iface.Descriptor{Name: raw.name, IID: id}
		for _, rm := range raw.methods {
			m, err := rm.resolve()
			if err != nil {
				return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
					Interface(raw.name).
					Path(rm.name).
					Cause(err).
					Build()
			}
			d.Methods = append(d.Methods, m)
		}
		byName[raw.name] = d
		parents[i] = raw.parent
		out.Interfaces = append(out.Interfaces, d)
	}

	for i, d := range out.Interfaces {
		name := parents[i]
		if name == "" {
			name = iface.IUnknown.Name
		}
		parent, ok := byName[name]
		if !ok {
			return nil, errors.New(errors.PhaseParse, errors.KindNotFound).
				Interface(d.Name).
				Detail("parent %q not declared", name).
				Build()
		}
		d.Parent = parent
	}

	reg := iface.NewRegistry()
	for _, d := range out.Interfaces {
		if err := reg.Register(d); err != nil {
			return nil, errors.Registration(errors.PhaseParse, "interface", d.Name, err)
		}
	}

	for _, raw := range f.classes {
		c, err := raw.resolve(byName)
		if err != nil {
			return nil, err
		}
		out.Classes = append(out.Classes, c)
	}
	return out, nil
}

func (m rawMethod) resolve() (iface.Method, error) {
	out := iface.Method{Name: m.name}
	if m.result != "" {
		t, ptr, err := ParseType(m.result)
		if err != nil {
			return out, err
		}
		if ptr {
			return out, errors.Unsupported(errors.PhaseParse, "pointer results; return pointers through a ptr parameter")
		}
		out.Result = t
	}
	for _, p := range m.params {
		t, ptr, err := ParseType(p.typ)
		if err != nil {
			return out, err
		}
		out.Params = append(out.Params, iface.Param{Name: p.name, Type: t, Ptr: ptr})
	}
	return out, nil
}

func (c rawClass) resolve(byName map[string]*iface.Descriptor) (*Class, error) {
	if c.name == "" {
		return nil, errors.InvalidData(errors.PhaseParse, []string{"classes"}, "class without a name")
	}
	out := &Class{Name: c.name}
	if c.clsid != "" {
		id, err := iid.Parse(c.clsid)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Class(c.name).
				Cause(err).
				Detail("bad clsid %q", c.clsid).
				Build()
		}
		out.CLSID = id
	}
	for _, name := range c.implements {
		d, ok := byName[name]
		if !ok {
			return nil, errors.New(errors.PhaseParse, errors.KindNotFound).
				Class(c.name).
				Detail("implemented interface %q not declared", name).
				Build()
		}
		out.Implements = append(out.Implements, d)
	}
	for _, f := range c.fields {
		t, ptr, err := ParseType(f.typ)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
				Class(c.name).
				Path(f.name).
				Cause(err).
				Build()
		}
		if ptr {
			return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
				Class(c.name).
				Path(f.name).
				Detail("ptr fields depend on the pointer width; use u32 or u64").
				Build()
		}
		out.Fields = append(out.Fields, Field{Name: f.name, Type: t})
	}
	return out, nil
}

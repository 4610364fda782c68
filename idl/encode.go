package idl

import (
	"github.com/go-faster/jx"

	"github.com/wippyai/wasm-com/iface"
)

// Encode writes f in the definition file format. Only scalar types have
// definition-file names; composite types encode as "".
func Encode(f *File) []byte {
	var e jx.Encoder
	e.SetIdent(2)

	e.ObjStart()
	e.FieldStart("interfaces")
	e.ArrStart()
	for _, d := range f.Interfaces {
		encodeInterface(&e, d)
	}
	e.ArrEnd()

	if len(f.Classes) > 0 {
		e.FieldStart("classes")
		e.ArrStart()
		for _, c := range f.Classes {
			encodeClass(&e, c)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	return e.Bytes()
}

func encodeInterface(e *jx.Encoder, d *iface.Descriptor) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(d.Name)
	e.FieldStart("iid")
	e.Str(d.IID.String())
	if d.Parent != nil && !d.Parent.IsRoot() {
		e.FieldStart("parent")
		e.Str(d.Parent.Name)
	}
	if len(d.Methods) > 0 {
		e.FieldStart("methods")
		e.ArrStart()
		for _, m := range d.Methods {
			encodeMethod(e, m)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

func encodeMethod(e *jx.Encoder, m iface.Method) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(m.Name)
	if len(m.Params) > 0 {
		e.FieldStart("params")
		e.ArrStart()
		for _, p := range m.Params {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(p.Name)
			e.FieldStart("type")
			if p.Ptr {
				e.Str(TypePtr)
			} else {
				e.Str(TypeName(p.Type))
			}
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	if m.Result != nil {
		e.FieldStart("result")
		name := TypeName(m.Result)
		if name == "s32" {
			name = TypeHRESULT
		}
		e.Str(name)
	}
	e.ObjEnd()
}

func encodeClass(e *jx.Encoder, c *Class) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(c.Name)
	if !c.CLSID.IsNil() {
		e.FieldStart("clsid")
		e.Str(c.CLSID.String())
	}
	e.FieldStart("implements")
	e.ArrStart()
	for _, d := range c.Implements {
		e.Str(d.Name)
	}
	e.ArrEnd()
	if len(c.Fields) > 0 {
		e.FieldStart("fields")
		e.ArrStart()
		for _, f := range c.Fields {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(f.Name)
			e.FieldStart("type")
			e.Str(TypeName(f.Type))
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
}

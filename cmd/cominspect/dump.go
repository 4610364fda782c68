package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/go-faster/jx"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/idl"
	"github.com/wippyai/wasm-com/iface"
)

func typeName(t wit.Type) string {
	if name := idl.TypeName(t); name != "" {
		return name
	}
	if td, ok := t.(*wit.TypeDef); ok && td.Name != nil {
		return *td.Name
	}
	return fmt.Sprintf("%T", t)
}

func valueTypes(ts []api.ValueType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = api.ValueTypeName(t)
	}
	return out
}

func signature(s iface.Slot) string {
	res := "()"
	if len(s.ResultTypes) > 0 {
		res = strings.Join(valueTypes(s.ResultTypes), ", ")
	}
	return "(" + strings.Join(valueTypes(s.ParamTypes), ", ") + ") -> " + res
}

func chainNames(l *iface.VTableLayout) string {
	names := make([]string, len(l.Chain))
	for i, d := range l.Chain {
		names[i] = d.Name
	}
	return strings.Join(names, " -> ")
}

// printText writes a human readable dump of every interface and class.
func printText(w io.Writer, c *catalog) error {
	layouts, err := c.layouts()
	if err != nil {
		return err
	}
	stats := c.space.Heap().Stats()
	fmt.Fprintf(w, "source %s, pointer width %d, heap %d bytes\n", c.source, c.space.Width(), stats.Capacity)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range layouts {
		fmt.Fprintf(tw, "\ninterface %s {%s}\n", l.Interface.Name, l.Interface.IID)
		fmt.Fprintf(tw, "  chain: %s\n", chainNames(l))
		fmt.Fprintf(tw, "  vtable: %d slots, %d bytes\n", len(l.Slots), l.Size())
		for _, s := range l.Slots {
			fmt.Fprintf(tw, "    [%d]\t+%d\t%s.%s\t%s\n", s.Index, s.Offset(l.Width), s.Owner.Name, s.Method.Name, signature(s))
		}
	}

	for _, class := range c.space.Classes() {
		lay := class.Layout()
		fmt.Fprintf(tw, "\nclass %s", class.Name())
		if id, ok := c.clsids[class.Name()]; ok {
			fmt.Fprintf(tw, " {%s}", id)
		}
		fmt.Fprintf(tw, "\n  size %d, align %d\n", lay.Size, lay.Align)
		for i, d := range lay.Interfaces {
			fmt.Fprintf(tw, "    +%d\tvptr\t%s\t%d slots\n", lay.VPtrOffsets[i], d.Interface.Name, len(d.Slots))
		}
		fmt.Fprintf(tw, "    +%d\trefcount\tu32\t\n", lay.RefCountOffset)
		for _, f := range lay.Fields {
			fmt.Fprintf(tw, "    +%d\t%s\t%s\t%d bytes\n", f.Offset, f.Name, typeName(f.Type), f.Size)
		}
	}
	return tw.Flush()
}

// encodeJSON renders the same information as printText.
func encodeJSON(c *catalog) ([]byte, error) {
	layouts, err := c.layouts()
	if err != nil {
		return nil, err
	}

	var e jx.Encoder
	e.SetIdent(2)
	e.ObjStart()
	e.FieldStart("source")
	e.Str(c.source)
	e.FieldStart("pointer_width")
	e.UInt32(c.space.Width())

	e.FieldStart("interfaces")
	e.ArrStart()
	for _, l := range layouts {
		encodeVTable(&e, l)
	}
	e.ArrEnd()

	e.FieldStart("classes")
	e.ArrStart()
	for _, class := range c.space.Classes() {
		encodeClass(&e, c, class)
	}
	e.ArrEnd()
	e.ObjEnd()
	return e.Bytes(), nil
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func encodeVTable(e *jx.Encoder, l *iface.VTableLayout) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(l.Interface.Name)
	e.FieldStart("iid")
	e.Str(l.Interface.IID.String())
	e.FieldStart("chain")
	chain := make([]string, len(l.Chain))
	for i, d := range l.Chain {
		chain[i] = d.Name
	}
	encodeStrings(e, chain)
	e.FieldStart("size")
	e.UInt32(l.Size())
	e.FieldStart("slots")
	e.ArrStart()
	for _, s := range l.Slots {
		e.ObjStart()
		e.FieldStart("index")
		e.Int(s.Index)
		e.FieldStart("offset")
		e.UInt32(s.Offset(l.Width))
		e.FieldStart("owner")
		e.Str(s.Owner.Name)
		e.FieldStart("method")
		e.Str(s.Method.Name)
		e.FieldStart("params")
		encodeStrings(e, valueTypes(s.ParamTypes))
		e.FieldStart("results")
		encodeStrings(e, valueTypes(s.ResultTypes))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeClass(e *jx.Encoder, c *catalog, class *com.Class) {
	lay := class.Layout()
	e.ObjStart()
	e.FieldStart("name")
	e.Str(class.Name())
	if id, ok := c.clsids[class.Name()]; ok {
		e.FieldStart("clsid")
		e.Str(id.String())
	}
	e.FieldStart("size")
	e.UInt32(lay.Size)
	e.FieldStart("align")
	e.UInt32(lay.Align)
	e.FieldStart("refcount_offset")
	e.UInt32(lay.RefCountOffset)

	e.FieldStart("interfaces")
	e.ArrStart()
	for i, d := range lay.Interfaces {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(d.Interface.Name)
		e.FieldStart("offset")
		e.UInt32(lay.VPtrOffsets[i])
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("fields")
	e.ArrStart()
	for _, f := range lay.Fields {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(f.Name)
		e.FieldStart("type")
		e.Str(typeName(f.Type))
		e.FieldStart("offset")
		e.UInt32(f.Offset)
		e.FieldStart("size")
		e.UInt32(f.Size)
		e.FieldStart("align")
		e.UInt32(f.Align)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

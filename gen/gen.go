package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"sort"

	"github.com/iancoleman/strcase"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iface"
)

// Options controls generation.
type Options struct {
	// Package is the package clause of the generated file.
	Package string

	// Generator names the tool in the "Code generated" header.
	Generator string

	// PointerWidth selects the vtable layout. Defaults to 4.
	PointerWidth uint32
}

// reserved names used by the generated method bodies
var reserved = map[string]bool{"ctx": true, "res": true, "err": true, "x": true}

const (
	importAPI     = "github.com/tetratelabs/wazero/api"
	importCom     = "github.com/wippyai/wasm-com/com"
	importHRESULT = "github.com/wippyai/wasm-com/hresult"
	importIID     = "github.com/wippyai/wasm-com/iid"
)

type printer struct {
	buf     bytes.Buffer
	imports map[string]bool
}

// P prints its arguments followed by a newline.
func (p *printer) P(v ...any) {
	for _, x := range v {
		fmt.Fprint(&p.buf, x)
	}
	p.buf.WriteByte('\n')
}

func (p *printer) use(path string) {
	p.imports[path] = true
}

// Generate renders stubs for ds in one formatted Go file.
func Generate(ds []*iface.Descriptor, opts Options) ([]byte, error) {
	if opts.Package == "" || !token.IsIdentifier(opts.Package) {
		return nil, errors.New(errors.PhaseGenerate, errors.KindInvalidInput).
			Value(opts.Package).
			Detail("invalid package name %q", opts.Package).
			Build()
	}
	if opts.Generator == "" {
		opts.Generator = "gen"
	}
	if opts.PointerWidth == 0 {
		opts.PointerWidth = 4
	}

	compiler := iface.NewCompiler(opts.PointerWidth)
	body := &printer{imports: map[string]bool{importCom: true, importIID: true}}
	body.imports["context"] = true

	seen := make(map[string]bool)
	for _, d := range ds {
		if d == nil || d.IsRoot() {
			continue
		}
		name := exportedName(d.Name)
		if seen[name] {
			return nil, errors.Duplicate(errors.PhaseGenerate, "type", name)
		}
		seen[name] = true

		l, err := compiler.Compile(d)
		if err != nil {
			kind := errors.KindBrokenChain
			if e, ok := err.(*errors.Error); ok {
				kind = e.Kind
			}
			return nil, errors.New(errors.PhaseGenerate, kind).
				Interface(d.Name).
				Cause(err).
				Build()
		}
		if err := genInterface(body, name, l); err != nil {
			return nil, err
		}
	}

	out := &printer{}
	out.P("// Code generated by ", opts.Generator, ". DO NOT EDIT.")
	out.P()
	out.P("package ", opts.Package)
	out.P()
	out.P("import (")
	paths := make([]string, 0, len(body.imports))
	for path := range body.imports {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		out.P(fmt.Sprintf("%q", path))
	}
	out.P(")")
	out.P()
	out.buf.Write(body.buf.Bytes())

	src, err := format.Source(out.buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGenerate, errors.KindInvalidData, err, "format generated source")
	}
	return src, nil
}

func genInterface(p *printer, name string, l *iface.VTableLayout) error {
	d := l.Interface
	p.P("// ", name, "IID identifies ", d.Name, ".")
	p.P("var ", name, "IID = iid.MustParse(", fmt.Sprintf("%q", d.IID.String()), ")")
	p.P()
	p.P("// ", name, " is a typed ", d.Name, " interface pointer.")
	p.P("type ", name, " struct {")
	p.P("com.Ptr")
	p.P("}")
	p.P()
	p.P("// New", name, " wraps p without adding a reference.")
	p.P("func New", name, "(p com.Ptr) ", name, " {")
	p.P("return ", name, "{Ptr: p}")
	p.P("}")
	p.P()
	p.P("// Query", name, " queries p for ", d.Name, ". The result carries one reference.")
	p.P("func Query", name, "(ctx context.Context, p com.Ptr) (", name, ", error) {")
	p.P("return com.GetInterface(ctx, p, ", name, "IID, New", name, ")")
	p.P("}")
	p.P()

	for _, s := range l.Slots[iface.RootSlots:] {
		if err := genMethod(p, name, s); err != nil {
			return err
		}
	}
	return nil
}

func genMethod(p *printer, typeName string, s iface.Slot) error {
	m := s.Method
	goName := exportedName(m.Name)

	var params, args []string
	for i, prm := range m.Params {
		arg := argName(prm.Name, i)
		if prm.Ptr {
			params = append(params, arg+" uint32")
			args = append(args, "uint64("+arg+")")
			continue
		}
		goType, enc, ok := encoder(prm.Type, arg)
		if !ok {
			return unsupported(s, prm.Name, prm.Type)
		}
		if usesAPI(prm.Type) {
			p.use(importAPI)
		}
		params = append(params, arg+" "+goType)
		args = append(args, enc)
	}

	sig := "ctx context.Context"
	for _, prm := range params {
		sig += ", " + prm
	}
	call := fmt.Sprintf("x.Ptr.Invoke(ctx, %d", s.Index)
	for _, a := range args {
		call += ", " + a
	}
	call += ")"

	comment := fmt.Sprintf("// %s calls %s.%s (slot %d).", goName, s.Owner.Name, m.Name, s.Index)
	if m.Result == nil {
		p.P(comment)
		p.P("func (x ", typeName, ") ", goName, "(", sig, ") error {")
		p.P("_, err := ", call)
		p.P("return err")
		p.P("}")
		p.P()
		return nil
	}

	goType, dec, ok := decoder(m.Result, "res[0]")
	if !ok {
		return unsupported(s, "result", m.Result)
	}
	if _, isS32 := m.Result.(wit.S32); isS32 {
		p.use(importHRESULT)
	} else if usesAPI(m.Result) {
		p.use(importAPI)
	}
	p.P(comment)
	p.P("func (x ", typeName, ") ", goName, "(", sig, ") (", goType, ", error) {")
	p.P("res, err := ", call)
	p.P("if err != nil {")
	p.P("var zero ", goType)
	p.P("return zero, err")
	p.P("}")
	p.P("return ", dec, ", nil")
	p.P("}")
	p.P()
	return nil
}

// exportedName keeps names that are already exported Go identifiers
// (IFood, ICat) and converts IDL-style names (consume-food).
func exportedName(name string) string {
	if token.IsIdentifier(name) && token.IsExported(name) {
		return name
	}
	return strcase.ToCamel(name)
}

func argName(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("arg%d", i)
	}
	n := strcase.ToLowerCamel(name)
	if token.IsKeyword(n) || reserved[n] || !token.IsIdentifier(n) {
		n += "Arg"
	}
	return n
}

func unsupported(s iface.Slot, what string, t wit.Type) error {
	return errors.New(errors.PhaseGenerate, errors.KindUnsupported).
		Interface(s.Owner.Name).
		Path(s.Method.Name, what).
		Detail("type %T has no generated Go mapping", t).
		Build()
}

func usesAPI(t wit.Type) bool {
	switch t.(type) {
	case wit.S8, wit.S16, wit.S32, wit.F32, wit.F64:
		return true
	}
	return false
}

// encoder returns the Go type of a scalar parameter and the expression
// flattening it to a uint64 argument.
func encoder(t wit.Type, v string) (goType, expr string, ok bool) {
	switch t.(type) {
	case wit.Bool:
		return "bool", "com.BoolArg(" + v + ")", true
	case wit.U8:
		return "uint8", "uint64(" + v + ")", true
	case wit.U16:
		return "uint16", "uint64(" + v + ")", true
	case wit.U32:
		return "uint32", "uint64(" + v + ")", true
	case wit.Char:
		return "rune", "uint64(uint32(" + v + "))", true
	case wit.U64:
		return "uint64", v, true
	case wit.S8:
		return "int8", "api.EncodeI32(int32(" + v + "))", true
	case wit.S16:
		return "int16", "api.EncodeI32(int32(" + v + "))", true
	case wit.S32:
		return "int32", "api.EncodeI32(" + v + ")", true
	case wit.S64:
		return "int64", "uint64(" + v + ")", true
	case wit.F32:
		return "float32", "api.EncodeF32(" + v + ")", true
	case wit.F64:
		return "float64", "api.EncodeF64(" + v + ")", true
	default:
		return "", "", false
	}
}

// decoder returns the Go type of a scalar result and the expression
// converting the flat value v back.
func decoder(t wit.Type, v string) (goType, expr string, ok bool) {
	switch t.(type) {
	case wit.Bool:
		return "bool", v + " != 0", true
	case wit.U8:
		return "uint8", "uint8(" + v + ")", true
	case wit.U16:
		return "uint16", "uint16(" + v + ")", true
	case wit.U32:
		return "uint32", "uint32(" + v + ")", true
	case wit.Char:
		return "rune", "rune(uint32(" + v + "))", true
	case wit.U64:
		return "uint64", v, true
	case wit.S8:
		return "int8", "int8(api.DecodeI32(" + v + "))", true
	case wit.S16:
		return "int16", "int16(api.DecodeI32(" + v + "))", true
	case wit.S32:
		return "hresult.HRESULT", "hresult.FromUint64(" + v + ")", true
	case wit.S64:
		return "int64", "int64(" + v + ")", true
	case wit.F32:
		return "float32", "api.DecodeF32(" + v + ")", true
	case wit.F64:
		return "float64", "api.DecodeF64(" + v + ")", true
	default:
		return "", "", false
	}
}

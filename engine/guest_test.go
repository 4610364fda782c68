package engine

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionCode     = 10
	externFunc      = 0
)

// guestFuncs are the primitives the guest imports from the host module and
// re-exports under the same names.
var guestFuncs = []struct {
	name   string
	typ    byte
	params int
}{
	{"query_interface", 0, 3},
	{"add_ref", 1, 1},
	{"release", 1, 1},
}

func writeName(out *bytes.Buffer, s string) {
	out.Write(uleb128(uint32(len(s))))
	out.WriteString(s)
}

// guestModule encodes a module importing query_interface, add_ref and
// release from host and exporting wrappers that forward their arguments.
func guestModule(host string, width uint32) []byte {
	ptr := byte(api.ValueTypeI32)
	if width == 8 {
		ptr = byte(api.ValueTypeI64)
	}
	i32 := byte(api.ValueTypeI32)

	var types bytes.Buffer
	types.WriteByte(0x02)
	types.Write([]byte{0x60, 0x03, ptr, ptr, ptr, 0x01, i32})
	types.Write([]byte{0x60, 0x01, ptr, 0x01, i32})

	var imports, funcs, exports, code bytes.Buffer
	n := byte(len(guestFuncs))
	imports.WriteByte(n)
	funcs.WriteByte(n)
	exports.WriteByte(n)
	code.WriteByte(n)
	for i, f := range guestFuncs {
		writeName(&imports, host)
		writeName(&imports, f.name)
		imports.Write([]byte{externFunc, f.typ})

		funcs.WriteByte(f.typ)

		writeName(&exports, f.name)
		exports.Write([]byte{externFunc, byte(len(guestFuncs) + i)})

		var body bytes.Buffer
		body.WriteByte(0x00) // no locals
		for p := 0; p < f.params; p++ {
			body.Write([]byte{0x20, byte(p)}) // local.get
		}
		body.Write([]byte{0x10, byte(i)}) // call import i
		body.WriteByte(0x0b)
		code.Write(uleb128(uint32(body.Len())))
		code.Write(body.Bytes())
	}

	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	writeSection(&out, sectionType, types.Bytes())
	writeSection(&out, sectionImport, imports.Bytes())
	writeSection(&out, sectionFunction, funcs.Bytes())
	writeSection(&out, sectionExport, exports.Bytes())
	writeSection(&out, sectionCode, code.Bytes())
	return out.Bytes()
}

// instantiateGuest links a guest module against the host module of e.
func instantiateGuest(t *testing.T, e *Engine, width uint32) api.Module {
	t.Helper()
	ctx := context.Background()
	mod, err := e.Runtime().InstantiateWithConfig(ctx, guestModule(e.cfg.ModuleName, width),
		wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		t.Fatalf("instantiate guest failed: %v", err)
	}
	t.Cleanup(func() { mod.Close(ctx) })
	return mod
}

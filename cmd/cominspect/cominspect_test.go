package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/gen"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iid"
)

const shapes = `{
  "interfaces": [
    {
      "name": "IShape",
      "iid": "7b0c1d2e-3f40-4a5b-8c6d-7e8f90a1b2c3",
      "methods": [
        {"name": "area", "result": "f64"},
        {"name": "scale", "params": [{"name": "factor", "type": "u32"}], "result": "hresult"}
      ]
    }
  ],
  "classes": [
    {
      "name": "Square",
      "clsid": "0d1e2f30-4152-4637-8849-5a6b7c8d9eaf",
      "implements": ["IShape"],
      "fields": [{"name": "side", "type": "u32"}]
    },
    {
      "name": "Unpublished",
      "implements": ["IShape"]
    }
  ]
}`

func demoCatalog(t *testing.T, opts spaceOptions) *catalog {
	t.Helper()
	if opts.log == nil {
		opts.log = zap.NewNop()
	}
	cat, err := loadDemo(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.close(context.Background()) })
	return cat
}

func TestPrintText(t *testing.T) {
	cat := demoCatalog(t, spaceOptions{width: 4})

	var buf bytes.Buffer
	require.NoError(t, printText(&buf, cat))
	out := buf.String()

	assert.Contains(t, out, "source demo, pointer width 4")
	assert.Contains(t, out, "interface IFood {14f486bf-408d-43be-8a34-bbfa56980a37}")
	assert.Contains(t, out, "chain: ICat -> IAnimal -> IUnknown")
	assert.Contains(t, out, "vtable: 5 slots, 20 bytes")
	assert.Contains(t, out, "class BritishShortHairCat {c5f45cbc-4439-418c-a9f9-05ac67525e43}")
	assert.Contains(t, out, "size 24, align 4")
	assert.Contains(t, out, "class ClassFactory")
	assert.Regexp(t, `\+8\s+refcount`, out)
	assert.Regexp(t, `\+20\s+tricks\s+u32`, out)
	assert.Regexp(t, `\[3\]\s+\+12\s+IAnimal\.eat\s+\(i32, i32\) -> i32`, out)
}

func TestEncodeJSON(t *testing.T) {
	cat := demoCatalog(t, spaceOptions{width: 8})

	out, err := encodeJSON(cat)
	require.NoError(t, err)
	require.True(t, jx.Valid(out))

	var (
		width   uint32
		classes []string
		slots   int
	)
	d := jx.DecodeBytes(out)
	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "pointer_width":
			v, err := d.UInt32()
			width = v
			return err
		case "classes":
			return d.Arr(func(d *jx.Decoder) error {
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "name" {
						return d.Skip()
					}
					name, err := d.Str()
					classes = append(classes, name)
					return err
				})
			})
		case "interfaces":
			return d.Arr(func(d *jx.Decoder) error {
				return d.Obj(func(d *jx.Decoder, key string) error {
					if key != "slots" {
						return d.Skip()
					}
					return d.Arr(func(d *jx.Decoder) error {
						slots++
						return d.Skip()
					})
				})
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)

	assert.Equal(t, uint32(8), width)
	assert.Equal(t, []string{"Bowl", "BritishShortHairCat", "ClassFactory"}, classes)
	assert.Equal(t, 4+4+5+5, slots)
}

func TestGeneratedStubsAreCurrent(t *testing.T) {
	cat := demoCatalog(t, spaceOptions{width: 4})

	out, err := gen.Generate(cat.interfaces, gen.Options{Package: "demo", Generator: "cominspect"})
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "..", "internal", "demo", "zoo_gen.go"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(out), "run go generate ./internal/demo")
}

func TestLoadIDL(t *testing.T) {
	for _, wasm := range []bool{false, true} {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "shapes.json")
		require.NoError(t, os.WriteFile(path, []byte(shapes), 0o600))

		cat, err := loadIDL(ctx, path, spaceOptions{log: zap.NewNop(), width: 4, wasm: wasm})
		require.NoError(t, err)

		_, ok := cat.space.Class("Unpublished")
		assert.True(t, ok)
		require.NotNil(t, cat.factories)
		assert.Equal(t, []iid.CLSID{iid.MustParse("0d1e2f30-4152-4637-8849-5a6b7c8d9eaf")}, cat.factories.CLSIDs())

		shape, err := cat.factories.CreateInstance(ctx, cat.clsids["Square"], cat.interfaces[0].IID)
		require.NoError(t, err)
		res, err := shape.Invoke(ctx, 4, 2)
		require.NoError(t, err)
		assert.Equal(t, hresult.E_NOTIMPL, hresult.FromUint64(res[0]))
		_, err = shape.Release(ctx)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, printText(&buf, cat))
		assert.Contains(t, buf.String(), "class Square {0d1e2f30-4152-4637-8849-5a6b7c8d9eaf}")
		assert.True(t, strings.HasPrefix(buf.String(), "source "+path))

		require.NoError(t, cat.close(ctx))
	}
}

func TestLoadIDL_Errors(t *testing.T) {
	ctx := context.Background()
	opts := spaceOptions{log: zap.NewNop(), width: 4}

	_, err := loadIDL(ctx, filepath.Join(t.TempDir(), "missing.json"), opts)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"interfaces": [{"name": "X"}]}`), 0o600))
	_, err = loadIDL(ctx, path, opts)
	assert.Error(t, err)
}

func TestRun_Width(t *testing.T) {
	err := run(context.Background(), options{width: 3}, zap.NewNop())
	assert.Error(t, err)
}

func TestRun_WritesOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zoo.go")
	err := run(context.Background(), options{width: 4, genPackage: "zoo", output: path}, zap.NewNop())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "package zoo")
	assert.Contains(t, string(data), "func QueryICat(")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInspector_RefCounting(t *testing.T) {
	cat := demoCatalog(t, spaceOptions{width: 4})
	m := newInspectorModel(context.Background(), cat)
	bowl, ok := cat.space.Class("Bowl")
	require.True(t, ok)

	// row 0 is Bowl
	m.Update(key("enter"))
	require.Len(t, m.handles, 1)
	h := m.handles[0]
	obj, ok := h.ptr.Object()
	require.True(t, ok)
	assert.Equal(t, uint32(1), obj.RefCount())
	assert.Equal(t, "IFood", h.iface.Name)

	m.Update(key("a"))
	assert.Equal(t, uint32(2), obj.RefCount())
	assert.Equal(t, 2, h.refs)

	// query IFood through the IUnknown list: IUnknown, IFood
	m.Update(key("i"))
	require.Equal(t, stateQuery, m.state)
	m.Update(key("down"))
	m.Update(key("enter"))
	require.Len(t, m.handles, 2)
	assert.Equal(t, uint32(3), obj.RefCount())

	// call consume-food(5) through the new handle
	m.Update(key("enter"))
	require.Equal(t, stateMethods, m.state)
	m.Update(key("enter"))
	require.Equal(t, stateInputArgs, m.state)
	m.Update(key("5"))
	m.Update(key("enter"))
	require.Equal(t, stateShowResult, m.state)
	require.NoError(t, m.err)
	assert.Equal(t, "S_OK", m.result)
	level, err := obj.Uint32("level")
	require.NoError(t, err)
	assert.Equal(t, uint32(15), level)
	m.Update(key("esc"))
	m.Update(key("esc"))
	require.Equal(t, stateList, m.state)

	assert.NotEmpty(t, m.events)
	assert.Contains(t, m.View(), "Held pointers")

	m.quit()
	assert.Empty(t, m.handles)
	assert.Zero(t, bowl.Live())
}

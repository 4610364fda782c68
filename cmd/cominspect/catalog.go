package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/engine"
	"github.com/wippyai/wasm-com/factory"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/idl"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
	"github.com/wippyai/wasm-com/internal/demo"
)

// catalog is everything loaded from one source into a fresh space.
type catalog struct {
	space     *com.Space
	engine    *engine.Engine // nil for a plain buffer
	factories *factory.Registry
	clsids    map[string]iid.CLSID // by class name
	source    string

	// interfaces declared by the source, parents first
	interfaces []*iface.Descriptor
}

type spaceOptions struct {
	log   *zap.Logger
	width uint32
	wasm  bool
}

// newCatalog creates the space a source is loaded into. With wasm set the
// objects live in a wazero memory and the IUnknown host module is exported.
func newCatalog(ctx context.Context, source string, opts spaceOptions) (*catalog, error) {
	cfg := &com.Config{PointerWidth: opts.width, Logger: opts.log}
	if !opts.wasm {
		space, err := com.NewSpace(cfg)
		if err != nil {
			return nil, err
		}
		return &catalog{space: space, source: source, clsids: make(map[string]iid.CLSID)}, nil
	}

	eng, err := engine.New(ctx, &engine.Config{MemoryPages: 1, MaxMemoryPages: 256})
	if err != nil {
		return nil, err
	}
	space, _, err := eng.NewSpace(ctx, "objects", cfg)
	if err == nil {
		_, err = eng.Export(ctx, space)
	}
	if err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}
	return &catalog{space: space, engine: eng, source: source, clsids: make(map[string]iid.CLSID)}, nil
}

func loadDemo(ctx context.Context, opts spaceOptions) (*catalog, error) {
	cat, err := newCatalog(ctx, "demo", opts)
	if err != nil {
		return nil, err
	}
	zoo, err := demo.Setup(ctx, cat.space)
	if err != nil {
		_ = cat.close(ctx)
		return nil, err
	}
	cat.factories = zoo.Factories
	cat.interfaces = demo.Interfaces()
	cat.clsids[zoo.Bowl.Name()] = demo.CLSIDBowl
	cat.clsids[zoo.Cat.Name()] = demo.CLSIDBritishShortHairCat
	return cat, nil
}

func loadIDL(ctx context.Context, path string, opts spaceOptions) (*catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read definitions: %w", err)
	}
	file, err := idl.Parse(data)
	if err != nil {
		return nil, err
	}
	cat, err := newCatalog(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if err := cat.load(ctx, file); err != nil {
		_ = cat.close(ctx)
		return nil, err
	}
	return cat, nil
}

func (cat *catalog) load(ctx context.Context, file *idl.File) error {
	space := cat.space
	cat.interfaces = file.Interfaces
	for _, d := range file.Interfaces {
		if err := space.Registry().Register(d); err != nil {
			return err
		}
	}
	for _, c := range file.Classes {
		def, err := stubBodies(c.Define(), c.Implements).Build()
		if err != nil {
			return err
		}
		class, err := space.Register(def)
		if err != nil {
			return err
		}
		if c.CLSID.IsNil() {
			continue
		}
		if cat.factories == nil {
			if cat.factories, err = factory.NewRegistry(space); err != nil {
				return err
			}
		}
		if err := cat.factories.Register(ctx, c.CLSID, class); err != nil {
			return err
		}
		cat.clsids[class.Name()] = c.CLSID
	}
	return nil
}

// stubBodies gives every method of ds a body that reports E_NOTIMPL, so
// shapes loaded from a definition file can be laid out and instantiated.
func stubBodies(b *com.Builder, ds []*iface.Descriptor) *com.Builder {
	type key struct {
		owner *iface.Descriptor
		name  string
	}
	done := make(map[key]bool)
	for _, d := range ds {
		for owner := d; owner != nil && !owner.IsRoot(); owner = owner.Parent {
			for _, m := range owner.Methods {
				k := key{owner, m.Name}
				if done[k] {
					continue
				}
				done[k] = true
				b.Method(owner, m.Name, notImplemented(m))
			}
		}
	}
	return b
}

func notImplemented(m iface.Method) com.MethodFunc {
	return func(context.Context, *com.Object, []uint64) []uint64 {
		if m.Result == nil {
			return nil
		}
		return []uint64{hresult.E_NOTIMPL.Uint64()}
	}
}

// layouts returns the compiled vtable of every declared interface.
func (c *catalog) layouts() ([]*iface.VTableLayout, error) {
	out := make([]*iface.VTableLayout, 0, len(c.interfaces))
	for _, d := range c.interfaces {
		l, err := c.space.Compiler().Compile(d)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (c *catalog) close(ctx context.Context) error {
	var err error
	if c.factories != nil {
		err = c.factories.Close(ctx)
	}
	if c.engine != nil {
		if cerr := c.engine.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

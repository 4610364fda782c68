package iface

import (
	"sort"
	"sync"

	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/iid"
)

// Registry enforces that no two interfaces share an identifier or a name.
type Registry struct {
	byIID  map[iid.IID]*Descriptor
	byName map[string]*Descriptor
	mu     sync.RWMutex
}

// NewRegistry creates a registry holding IUnknown.
func NewRegistry() *Registry {
	r := &Registry{
		byIID:  make(map[iid.IID]*Descriptor),
		byName: make(map[string]*Descriptor),
	}
	r.byIID[IUnknown.IID] = IUnknown
	r.byName[IUnknown.Name] = IUnknown
	return r
}

// Register adds d and every ancestor not yet known. Registering the same
// descriptor twice is a no-op.
func (r *Registry) Register(d *Descriptor) error {
	return r.RegisterAll(d)
}

// RegisterAll adds every descriptor in ds with its ancestors. Nothing is
// added unless all of them can be.
func (r *Registry) RegisterAll(ds ...*Descriptor) error {
	var pending []*Descriptor
	for _, d := range ds {
		if d == nil {
			return errors.NilPointer(errors.PhaseDefine, nil, "interface descriptor")
		}
		chain, err := Chain(d)
		if err != nil {
			return err
		}
		pending = append(pending, chain...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	byIID := make(map[iid.IID]*Descriptor, len(pending))
	byName := make(map[string]*Descriptor, len(pending))
	known := func(cur *Descriptor) (*Descriptor, *Descriptor) {
		id, ok := r.byIID[cur.IID]
		if !ok {
			id = byIID[cur.IID]
		}
		name, ok := r.byName[cur.Name]
		if !ok {
			name = byName[cur.Name]
		}
		return id, name
	}
	for _, cur := range pending {
		byID, byN := known(cur)
		if byID != nil && byID != cur {
			return errors.New(errors.PhaseDefine, errors.KindDuplicate).
				Interface(cur.Name).
				Value(cur.IID).
				Detail("identifier %s already registered by %s", cur.IID, byID.Name).
				Build()
		}
		if byN != nil && byN != cur {
			return errors.Duplicate(errors.PhaseDefine, "interface name", cur.Name)
		}
		byIID[cur.IID] = cur
		byName[cur.Name] = cur
	}
	for _, cur := range pending {
		r.byIID[cur.IID] = cur
		r.byName[cur.Name] = cur
	}
	return nil
}

// Lookup finds a descriptor by identifier.
func (r *Registry) Lookup(id iid.IID) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byIID[id]
	return d, ok
}

// ByName finds a descriptor by name.
func (r *Registry) ByName(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// All returns every registered descriptor sorted by name.
func (r *Registry) All() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

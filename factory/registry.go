package factory

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iid"
)

type entry struct {
	class   *com.Class
	factory *com.Object
	clsid   iid.CLSID
}

// Registry maps class identifiers to classes and their factory objects.
// Like the space it belongs to, it is single-threaded.
type Registry struct {
	space   *com.Space
	factory *com.Class
	byID    map[iid.CLSID]int
	entries []entry // index stored in each factory object
	locks   int
}

// NewRegistry registers the factory class in space. A space holds at most
// one registry.
func NewRegistry(space *com.Space) (*Registry, error) {
	if space == nil {
		return nil, errors.NilPointer(errors.PhaseActivate, nil, "space")
	}
	r := &Registry{
		space: space,
		byID:  make(map[iid.CLSID]int),
	}
	def, err := r.defineFactory()
	if err != nil {
		return nil, err
	}
	r.factory, err = space.Register(def)
	if err != nil {
		return nil, errors.Registration(errors.PhaseActivate, "class", ClassName, err)
	}
	return r, nil
}

// Space returns the space the registry activates objects in.
func (r *Registry) Space() *com.Space { return r.space }

// Register binds clsid to class and constructs its factory object. The
// registry holds one reference to the factory until Unregister.
func (r *Registry) Register(ctx context.Context, clsid iid.CLSID, class *com.Class) error {
	if class == nil {
		return errors.NilPointer(errors.PhaseActivate, nil, "class")
	}
	if class.Space() != r.space {
		return errors.New(errors.PhaseActivate, errors.KindInvalidInput).
			Class(class.Name()).
			Detail("class belongs to a different space").
			Build()
	}
	if _, dup := r.byID[clsid]; dup {
		return errors.Duplicate(errors.PhaseActivate, "class identifier", clsid.String())
	}

	index := len(r.entries)
	f, err := r.factory.New(uint32(index))
	if err != nil {
		return errors.Registration(errors.PhaseActivate, "factory for", class.Name(), err)
	}
	if _, err := f.Interface(0).AddRef(ctx); err != nil {
		if derr := f.Discard(); derr != nil {
			Logger().Error("discard factory failed", zap.String("class", class.Name()), zap.Error(derr))
		}
		return err
	}

	r.entries = append(r.entries, entry{clsid: clsid, class: class, factory: f})
	r.byID[clsid] = index

	Logger().Debug("class registered", zap.String("class", class.Name()), zap.Stringer("clsid", clsid))
	return nil
}

// Unregister removes clsid and drops the registry's factory reference.
// Factory pointers handed out earlier stay valid until released; their
// create-instance calls then fail with CLASS_E_CLASSNOTAVAILABLE.
func (r *Registry) Unregister(ctx context.Context, clsid iid.CLSID) error {
	index, ok := r.byID[clsid]
	if !ok {
		return errors.NotFound(errors.PhaseActivate, "class identifier", clsid.String())
	}
	e := r.entries[index]
	delete(r.byID, clsid)
	r.entries[index] = entry{clsid: clsid}

	_, err := e.factory.Interface(0).Release(ctx)
	return err
}

// GetClassObject returns the factory for clsid queried for id. Unknown
// identifiers fail with CLASS_E_CLASSNOTAVAILABLE.
func (r *Registry) GetClassObject(ctx context.Context, clsid iid.CLSID, id iid.IID) (com.Ptr, error) {
	index, ok := r.byID[clsid]
	if !ok {
		return com.Ptr{}, hresult.CLASS_E_CLASSNOTAVAILABLE
	}
	return r.entries[index].factory.Interface(0).QueryInterface(ctx, id)
}

// Factory returns the typed factory pointer for clsid. The caller owns one
// reference.
func (r *Registry) Factory(ctx context.Context, clsid iid.CLSID) (ClassFactory, error) {
	index, ok := r.byID[clsid]
	if !ok {
		return ClassFactory{}, hresult.CLASS_E_CLASSNOTAVAILABLE
	}
	return com.GetInterface(ctx, r.entries[index].factory.Interface(0), iid.IClassFactory, newClassFactory)
}

func newClassFactory(p com.Ptr) ClassFactory {
	return ClassFactory{Ptr: p}
}

// CreateInstance activates clsid and returns a pointer for id carrying one
// reference. Failure statuses are returned as hresult.HRESULT errors.
func (r *Registry) CreateInstance(ctx context.Context, clsid iid.CLSID, id iid.IID) (com.Ptr, error) {
	f, err := r.Factory(ctx, clsid)
	if err != nil {
		return com.Ptr{}, err
	}
	defer f.Release(ctx) //nolint:errcheck

	s := r.space
	// riid followed by the out pointer
	args, err := s.Heap().Alloc(iid.Size+8, 8)
	if err != nil {
		return com.Ptr{}, errors.Wrap(errors.PhaseActivate, errors.KindAllocation, err, "allocate call arguments")
	}
	defer s.Heap().Free(args, iid.Size+8, 8)

	riid, ppv := args, args+iid.Size
	if err := s.WriteIID(riid, id); err != nil {
		return com.Ptr{}, err
	}
	hr, err := f.CreateInstance(ctx, 0, riid, ppv)
	if err != nil {
		return com.Ptr{}, err
	}
	if hr.Failed() {
		return com.Ptr{}, hr
	}

	var addr uint32
	if s.Width() == 8 {
		v, err := s.Memory().ReadU64(ppv)
		if err != nil {
			return com.Ptr{}, err
		}
		addr = uint32(v)
	} else if addr, err = s.Memory().ReadU32(ppv); err != nil {
		return com.Ptr{}, err
	}
	return s.Ptr(addr), nil
}

// LockServer adjusts the lock count through the factory of clsid.
func (r *Registry) LockServer(ctx context.Context, clsid iid.CLSID, lock bool) error {
	f, err := r.Factory(ctx, clsid)
	if err != nil {
		return err
	}
	defer f.Release(ctx) //nolint:errcheck

	hr, err := f.LockServer(ctx, lock)
	if err != nil {
		return err
	}
	return hr.Err()
}

// Locks returns the current lock count.
func (r *Registry) Locks() int { return r.locks }

// CanUnload reports whether nothing keeps the registry alive: no locks and
// no live instances of any registered class.
func (r *Registry) CanUnload() bool {
	if r.locks > 0 {
		return false
	}
	for _, e := range r.entries {
		if e.class != nil && e.class.Live() > 0 {
			return false
		}
	}
	return true
}

// CLSIDs returns the registered class identifiers in string order.
func (r *Registry) CLSIDs() []iid.CLSID {
	out := make([]iid.CLSID, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Close unregisters every class.
func (r *Registry) Close(ctx context.Context) error {
	for _, id := range r.CLSIDs() {
		if err := r.Unregister(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

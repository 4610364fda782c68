package factory

import (
	"context"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-com/com"
	"github.com/wippyai/wasm-com/hresult"
	"github.com/wippyai/wasm-com/iface"
	"github.com/wippyai/wasm-com/iid"
)

// IClassFactory creates instances of one class.
var IClassFactory = iface.Define("IClassFactory", iid.IClassFactory, nil,
	iface.Method{
		Name:   "create-instance",
		Params: []iface.Param{iface.PtrArg("outer"), iface.PtrArg("riid"), iface.PtrArg("ppv")},
		Result: iface.HRESULT,
	},
	iface.Method{
		Name:   "lock-server",
		Params: []iface.Param{iface.Arg("lock", wit.Bool{})},
		Result: iface.HRESULT,
	},
)

// Vtable slots of IClassFactory.
const (
	SlotCreateInstance = iface.RootSlots
	SlotLockServer     = iface.RootSlots + 1
)

// ClassName is the name the factory class is registered under.
const ClassName = "ClassFactory"

// ClassFactory is a typed IClassFactory pointer.
type ClassFactory struct {
	com.Ptr
}

// CreateInstance asks the factory for a new object exposing riid. riid and
// ppv are addresses in the space's memory.
func (f ClassFactory) CreateInstance(ctx context.Context, outer, riid, ppv uint32) (hresult.HRESULT, error) {
	res, err := f.Invoke(ctx, SlotCreateInstance, uint64(outer), uint64(riid), uint64(ppv))
	if err != nil {
		return hresult.E_FAIL, err
	}
	return hresult.FromUint64(res[0]), nil
}

// LockServer increments or decrements the registry lock count.
func (f ClassFactory) LockServer(ctx context.Context, lock bool) (hresult.HRESULT, error) {
	var v uint64
	if lock {
		v = 1
	}
	res, err := f.Invoke(ctx, SlotLockServer, v)
	if err != nil {
		return hresult.E_FAIL, err
	}
	return hresult.FromUint64(res[0]), nil
}

func (r *Registry) defineFactory() (*com.Definition, error) {
	return com.Define(ClassName).
		Implements(IClassFactory).
		Field("entry", wit.U32{}).
		Method(IClassFactory, "create-instance", r.createInstance).
		Method(IClassFactory, "lock-server", r.lockServer).
		Build()
}

func (r *Registry) createInstance(ctx context.Context, f *com.Object, params []uint64) []uint64 {
	outer, riid, ppv := uint32(params[0]), uint32(params[1]), uint32(params[2])
	return []uint64{r.activate(ctx, f, outer, riid, ppv).Uint64()}
}

// activate constructs an object and queries it for riid. The object is
// held at count 1 around the query so a failed query destroys it.
func (r *Registry) activate(ctx context.Context, f *com.Object, outer, riid, ppv uint32) hresult.HRESULT {
	if ppv == 0 {
		return hresult.E_POINTER
	}
	s := r.space
	var err error
	if s.Width() == 8 {
		err = s.Memory().WriteU64(ppv, 0)
	} else {
		err = s.Memory().WriteU32(ppv, 0)
	}
	if err != nil {
		return hresult.E_POINTER
	}
	if outer != 0 {
		return hresult.CLASS_E_NOAGGREGATION
	}

	index, err := f.Uint32("entry")
	if err != nil || int(index) >= len(r.entries) {
		return hresult.E_UNEXPECTED
	}
	e := r.entries[index]
	if e.class == nil {
		return hresult.CLASS_E_CLASSNOTAVAILABLE
	}

	obj, err := e.class.New()
	if err != nil {
		Logger().Warn("construct failed", zap.String("class", e.class.Name()), zap.Error(err))
		return hresult.E_OUTOFMEMORY
	}
	p := obj.Interface(0)
	if _, err := p.AddRef(ctx); err != nil {
		if derr := obj.Discard(); derr != nil {
			Logger().Error("discard failed", zap.String("class", e.class.Name()), zap.Error(derr))
		}
		return hresult.E_UNEXPECTED
	}
	res, err := p.Invoke(ctx, iface.SlotQueryInterface, uint64(riid), uint64(ppv))
	hr := hresult.E_UNEXPECTED
	if err == nil {
		hr = hresult.FromUint64(res[0])
	}
	if _, err := p.Release(ctx); err != nil {
		return hresult.E_UNEXPECTED
	}

	Logger().Debug("create instance",
		zap.String("class", e.class.Name()),
		zap.Stringer("clsid", e.clsid),
		zap.Stringer("hr", hr))
	return hr
}

func (r *Registry) lockServer(_ context.Context, _ *com.Object, params []uint64) []uint64 {
	if params[0] != 0 {
		r.locks++
	} else if r.locks > 0 {
		r.locks--
	}
	return []uint64{hresult.S_OK.Uint64()}
}

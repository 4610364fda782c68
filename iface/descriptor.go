package iface

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/iid"
)

// HRESULT is the WIT type of a status code result.
var HRESULT wit.Type = wit.S32{}

// Param is one method parameter. Pointer parameters have no WIT type and
// flatten to the pointer width.
type Param struct {
	Type wit.Type
	Name string
	Ptr  bool
}

// Arg declares a by-value parameter.
func Arg(name string, t wit.Type) Param {
	return Param{Name: name, Type: t}
}

// PtrArg declares a pointer parameter.
func PtrArg(name string) Param {
	return Param{Name: name, Ptr: true}
}

// Method is one interface method. The self pointer is implicit. A nil
// Result declares a method without results.
type Method struct {
	Result wit.Type
	Name   string
	Params []Param
}

// Descriptor describes one interface.
type Descriptor struct {
	Parent  *Descriptor
	Name    string
	Methods []Method
	IID     iid.IID
}

// Names of the IUnknown methods.
const (
	MethodQueryInterface = "query-interface"
	MethodAddRef         = "add-ref"
	MethodRelease        = "release"
)

// Slot indices of the IUnknown methods in every vtable.
const (
	SlotQueryInterface = iota
	SlotAddRef
	SlotRelease

	// RootSlots is the number of slots every vtable starts with.
	RootSlots
)

// IUnknown is the universal root interface.
var IUnknown = &Descriptor{
	Name: "IUnknown",
	IID:  iid.IUnknown,
	Methods: []Method{
		{Name: MethodQueryInterface, Params: []Param{PtrArg("riid"), PtrArg("ppv")}, Result: HRESULT},
		{Name: MethodAddRef, Result: wit.U32{}},
		{Name: MethodRelease, Result: wit.U32{}},
	},
}

// Define creates a descriptor. A nil parent means IUnknown.
func Define(name string, id iid.IID, parent *Descriptor, methods ...Method) *Descriptor {
	if parent == nil {
		parent = IUnknown
	}
	return &Descriptor{
		Name:    name,
		IID:     id,
		Parent:  parent,
		Methods: methods,
	}
}

// IsRoot reports whether d is the universal root interface.
func (d *Descriptor) IsRoot() bool {
	return d == IUnknown
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.Name + " {" + d.IID.String() + "}"
}

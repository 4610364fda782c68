// Package iface describes interfaces and compiles them into vtable layouts.
//
// # Descriptors
//
// A Descriptor names an interface, carries its identifier, its parent and
// its own methods. Every chain of parents must end at IUnknown, which
// contributes the three mandatory slots:
//
//	slot 0  query-interface(riid: ptr, ppv: ptr) -> s32
//	slot 1  add-ref() -> u32
//	slot 2  release() -> u32
//
// Method parameters and results are WIT value types. Pointers into linear
// memory are declared with PtrArg and flatten to the pointer width of the
// target.
//
//	IFood := iface.Define("IFood", iid.MustParse("14f486bf-408d-43be-8a34-bbfa56980a37"),
//	    iface.IUnknown,
//	    iface.Method{Name: "consume-food", Params: []iface.Param{iface.Arg("amount", wit.U32{})}, Result: iface.HRESULT},
//	)
//
// # Layout compilation
//
// Compiler turns a Descriptor into a VTableLayout: the ordered slot list,
// inherited slots first, and the flat core signature of each slot. Broken
// chains, cycles, duplicate identifiers or method names inside a chain, and
// signatures that do not fit the uniform calling convention are reported
// when the layout is compiled, never when an object is called.
//
//	c := iface.NewCompiler(4)
//	layout, err := c.Compile(IFood)
//
// Layouts are cached per descriptor and safe to share between goroutines.
package iface

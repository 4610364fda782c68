// Package wasmcom implements a binary component object model on top of
// linear memory.
//
// Objects expose one or more interfaces through dispatch tables, share a
// single intrusive reference count and answer identifier-keyed interface
// queries. Every structure is laid out bit-exactly in linear memory so that
// independently compiled consumers (including WebAssembly guests sharing the
// memory) can call through it.
//
// # Architecture Overview
//
//	wasmcom/          Root package with Memory and Allocator interfaces
//	├── iid/          128-bit interface identifiers
//	├── hresult/      Signed 32-bit status codes
//	├── iface/        Interface descriptors and the vtable layout compiler
//	├── com/          Object layout, constructor, lifetime, resolver, thunks
//	├── dispatch/     Function table (function pointers are table indices)
//	├── arena/        Linear memory buffers and the heap allocator
//	├── factory/      Class factories and activation by class identifier
//	├── engine/       wazero-backed memory and host module export
//	├── idl/          JSON interface definitions
//	├── gen/          Typed Go caller stub generator
//	├── errors/       Structured error types
//	└── cmd/cominspect Layout dumps, stub generation, interactive inspector
//
// # Quick Start
//
//	space, err := com.NewSpace(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	def, err := com.Define("Bowl").
//	    Implements(IFood).
//	    Field("level", wit.U32{}).
//	    Method(IFood, "consume-food", consumeFood).
//	    Build()
//
//	class, err := space.Register(def)
//	obj, err := class.New(uint32(20))
//
//	ptr := obj.Interface(0)
//	ptr.AddRef(ctx) // count starts at 0
//	food, err := ptr.QueryInterface(ctx, IFood.IID)
//	...
//	food.Release(ctx)
//	ptr.Release(ctx) // frees vtables and object
//
// # Thread Safety
//
// A Space and everything allocated in it is single-threaded by contract. The
// reference count is a plain integer in linear memory. Use com.Synchronized
// when a Space must be shared between goroutines.
package wasmcom

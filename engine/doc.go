// Package engine hosts an object space inside a wazero runtime.
//
// It provides two pieces:
//
//	NewMemory  - instantiates a memory-only module and wraps its exported
//	             memory, so objects live in real WebAssembly linear memory
//	Export     - instantiates a host module exporting the IUnknown
//	             primitives so guest modules can import and call them
//
// # Host Module
//
// The host module (named "com" unless configured otherwise) exports:
//
//	query_interface(this, riid, ppv) -> hresult
//	add_ref(this) -> count
//	release(this) -> count
//
// Pointer parameters are i32 for 4-byte spaces and i64 for 8-byte spaces.
// Each function dispatches through the vtable of this exactly as a guest
// performing call_indirect would, so every class's adjustor thunks run.
package engine

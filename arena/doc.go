// Package arena provides linear memories and the heap allocator that
// component objects and their vtables live in.
//
// # Memories
//
// Buffer is a growable, slice-backed linear memory. Wrapper adapts a wazero
// api.Memory so objects can live in the memory of a WebAssembly instance:
//
//	mem := arena.NewBuffer(1, 16)          // 1 page now, up to 16 pages
//	mem := arena.WrapMemory(mod.Memory())  // wazero instance memory
//
// # Heap
//
// Heap is a first-fit free-list allocator over a region of a memory. It
// implements wasmcom.Allocator, never returns address 0 and grows the
// underlying memory when it supports wasmcom.MemoryGrower.
//
//	heap, err := arena.NewHeap(mem, nil)
//	ptr, err := heap.Alloc(24, 4)
//	heap.Free(ptr, 24, 4)
//
// Every block is tracked. Freeing an address that is not a live block is a
// fatal error and panics with an *errors.Error of kind double_free.
//
// # Instrumentation
//
// Stats reports allocation and free counts, and observers receive an Event
// per allocation and free. Tests use both to check that objects are torn
// down exactly once.
//
// A Heap is not safe for concurrent use.
package arena

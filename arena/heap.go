package arena

import (
	"sort"

	wasmcom "github.com/wippyai/wasm-com"
	"github.com/wippyai/wasm-com/errors"
	"github.com/wippyai/wasm-com/internal/abi"
)

const (
	// DefaultBase is the first heap address. Addresses below it stay
	// unused so that 0 is never a valid block.
	DefaultBase = 16

	granule  = 8
	maxAlign = 4096
)

// Config configures a Heap.
type Config struct {
	// Base is the first address managed by the heap. 0 means DefaultBase.
	Base uint32

	// Size is the number of bytes managed. 0 means up to the end of memory,
	// which requires the memory to implement wasmcom.MemorySizer.
	Size uint32
}

// EventType identifies a heap event.
type EventType uint8

const (
	EventAllocated EventType = iota
	EventFreed
)

// Event describes one allocation or free.
type Event struct {
	Ptr  uint32
	Size uint32
	Type EventType
}

// Observer receives heap events.
type Observer interface {
	OnHeapEvent(Event)
}

// Stats reports heap activity since creation.
type Stats struct {
	Allocs     uint64
	Frees      uint64
	LiveBlocks int
	LiveBytes  uint32
	Capacity   uint32
}

type span struct {
	start, end uint32
}

// Heap is a first-fit free-list allocator over a region of linear memory.
type Heap struct {
	mem       wasmcom.Memory
	free      []span // sorted by start, non-adjacent
	live      map[uint32]uint32
	observers []Observer
	base      uint32
	limit     uint32
	growable  bool
	stats     Stats
}

var _ wasmcom.Allocator = (*Heap)(nil)

// NewHeap creates a heap over mem.
func NewHeap(mem wasmcom.Memory, cfg *Config) (*Heap, error) {
	if mem == nil {
		return nil, errors.NilPointer(errors.PhaseMemory, nil, "memory")
	}

	base := uint32(DefaultBase)
	var size uint32
	if cfg != nil {
		if cfg.Base != 0 {
			base = cfg.Base
		}
		size = cfg.Size
	}
	base = abi.AlignTo(base, granule)

	sizer, hasSize := mem.(wasmcom.MemorySizer)
	var limit uint32
	if size == 0 {
		if !hasSize {
			return nil, errors.InvalidInput(errors.PhaseMemory, "heap size required for memory without Size")
		}
		limit = sizer.Size()
	} else {
		end, ok := abi.SafeAddU32(base, size)
		if !ok {
			return nil, errors.InvalidInput(errors.PhaseMemory, "heap region overflows address space")
		}
		limit = end
	}
	if hasSize && limit > sizer.Size() {
		return nil, errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
			Detail("heap end 0x%x beyond memory size 0x%x", limit, sizer.Size()).
			Build()
	}
	if limit <= base {
		return nil, errors.InvalidInput(errors.PhaseMemory, "heap region is empty")
	}

	_, canGrow := mem.(wasmcom.MemoryGrower)
	h := &Heap{
		mem:      mem,
		base:     base,
		limit:    limit,
		live:     make(map[uint32]uint32),
		free:     []span{{start: base, end: limit}},
		growable: canGrow && hasSize && size == 0,
	}
	h.stats.Capacity = limit - base
	return h, nil
}

// Memory returns the memory the heap allocates from.
func (h *Heap) Memory() wasmcom.Memory {
	return h.mem
}

// Alloc allocates a zeroed block of size bytes aligned to align.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	if !abi.IsPowerOfTwo(align) || align > maxAlign {
		return 0, errors.InvalidInput(errors.PhaseMemory, "alignment must be a power of two up to 4096")
	}
	if size == 0 {
		size = 1
	}
	rounded, ok := abi.SafeAddU32(size, granule-1)
	if !ok {
		return 0, errors.AllocationFailed(errors.PhaseMemory, size, align)
	}
	size = rounded &^ (granule - 1)
	if align < granule {
		align = granule
	}

	ptr, ok := h.fit(size, align)
	if !ok {
		if !h.grow(size + align) {
			return 0, errors.AllocationFailed(errors.PhaseMemory, size, align)
		}
		if ptr, ok = h.fit(size, align); !ok {
			return 0, errors.AllocationFailed(errors.PhaseMemory, size, align)
		}
	}

	if err := h.mem.Write(ptr, make([]byte, size)); err != nil {
		h.release(ptr, size)
		return 0, errors.Wrap(errors.PhaseMemory, errors.KindAllocation, err, "zero block")
	}

	h.live[ptr] = size
	h.stats.Allocs++
	h.stats.LiveBlocks++
	h.stats.LiveBytes += size
	h.notify(Event{Type: EventAllocated, Ptr: ptr, Size: size})
	return ptr, nil
}

// Free releases the block at ptr. Freeing 0 is a no-op. The size and align
// arguments are accepted for wasmcom.Allocator compatibility; the heap uses
// the recorded block size. Freeing an address that is not a live block
// panics.
func (h *Heap) Free(ptr, size, align uint32) {
	if ptr == 0 {
		return
	}
	recorded, ok := h.live[ptr]
	if !ok {
		panic(errors.DoubleFree(ptr))
	}
	delete(h.live, ptr)
	h.release(ptr, recorded)

	h.stats.Frees++
	h.stats.LiveBlocks--
	h.stats.LiveBytes -= recorded
	h.notify(Event{Type: EventFreed, Ptr: ptr, Size: recorded})
}

// Owns reports whether ptr is the start of a live block, and its size.
func (h *Heap) Owns(ptr uint32) (uint32, bool) {
	size, ok := h.live[ptr]
	return size, ok
}

// Stats returns a snapshot of heap counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// Subscribe adds an observer for heap events.
func (h *Heap) Subscribe(o Observer) {
	h.observers = append(h.observers, o)
}

// Unsubscribe removes an observer.
func (h *Heap) Unsubscribe(o Observer) {
	for i, obs := range h.observers {
		if obs == o {
			h.observers = append(h.observers[:i], h.observers[i+1:]...)
			return
		}
	}
}

func (h *Heap) fit(size, align uint32) (uint32, bool) {
	for i, s := range h.free {
		start := abi.AlignTo(s.start, align)
		if start < s.start {
			continue // wrapped
		}
		end, ok := abi.SafeAddU32(start, size)
		if !ok || end > s.end {
			continue
		}

		var repl []span
		if start > s.start {
			repl = append(repl, span{start: s.start, end: start})
		}
		if end < s.end {
			repl = append(repl, span{start: end, end: s.end})
		}
		h.free = append(h.free[:i], append(repl, h.free[i+1:]...)...)
		return start, true
	}
	return 0, false
}

// release returns [ptr, ptr+size) to the free list, coalescing neighbours.
func (h *Heap) release(ptr, size uint32) {
	s := span{start: ptr, end: ptr + size}
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].start >= s.start })

	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s

	if i+1 < len(h.free) && h.free[i].end == h.free[i+1].start {
		h.free[i].end = h.free[i+1].end
		h.free = append(h.free[:i+1], h.free[i+2:]...)
	}
	if i > 0 && h.free[i-1].end == h.free[i].start {
		h.free[i-1].end = h.free[i].end
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
}

func (h *Heap) grow(need uint32) bool {
	if !h.growable {
		return false
	}
	grower := h.mem.(wasmcom.MemoryGrower)
	sizer := h.mem.(wasmcom.MemorySizer)

	pages := (need + wasmcom.PageSize - 1) / wasmcom.PageSize
	if _, ok := grower.Grow(pages); !ok {
		return false
	}
	newLimit := sizer.Size()
	if newLimit <= h.limit {
		return false
	}
	h.release(h.limit, newLimit-h.limit)
	h.stats.Capacity += newLimit - h.limit
	h.limit = newLimit
	return true
}

func (h *Heap) notify(e Event) {
	for _, o := range h.observers {
		o.OnHeapEvent(e)
	}
}

package arena

import (
	"github.com/tetratelabs/wazero/api"

	wasmcom "github.com/wippyai/wasm-com"
	"github.com/wippyai/wasm-com/errors"
)

// Wrapper is a wazero memory seen through the wasmcom memory interfaces.
// Out of range accesses return memory-phase out_of_bounds errors.
type Wrapper struct {
	mem api.Memory
}

var (
	_ wasmcom.Memory       = (*Wrapper)(nil)
	_ wasmcom.MemorySizer  = (*Wrapper)(nil)
	_ wasmcom.MemoryGrower = (*Wrapper)(nil)
)

// WrapMemory returns nil for a nil memory, so a module without an exported
// memory can be detected with a single check.
func WrapMemory(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{mem: mem}
}

// API returns the wrapped wazero memory.
func (w *Wrapper) API() api.Memory { return w.mem }

func (w *Wrapper) Size() uint32 { return w.mem.Size() }

func (w *Wrapper) Grow(deltaPages uint32) (uint32, bool) { return w.mem.Grow(deltaPages) }

func accessError(op string, offset, length uint32) error {
	return errors.New(errors.PhaseMemory, errors.KindOutOfBounds).
		Value(offset).
		Detail("%s of %d bytes at offset %d is out of bounds", op, length, offset).
		Build()
}

func checked[T any](v T, ok bool, offset, length uint32) (T, error) {
	if !ok {
		var zero T
		return zero, accessError("read", offset, length)
	}
	return v, nil
}

func written(ok bool, offset, length uint32) error {
	if !ok {
		return accessError("write", offset, length)
	}
	return nil
}

// Read returns a view of length bytes. The view aliases memory until the
// next grow.
func (w *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := w.mem.Read(offset, length)
	return checked(data, ok, offset, length)
}

func (w *Wrapper) Write(offset uint32, data []byte) error {
	return written(w.mem.Write(offset, data), offset, uint32(len(data)))
}

func (w *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := w.mem.ReadByte(offset)
	return checked(v, ok, offset, 1)
}

func (w *Wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := w.mem.ReadUint16Le(offset)
	return checked(v, ok, offset, 2)
}

func (w *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := w.mem.ReadUint32Le(offset)
	return checked(v, ok, offset, 4)
}

func (w *Wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := w.mem.ReadUint64Le(offset)
	return checked(v, ok, offset, 8)
}

func (w *Wrapper) WriteU8(offset uint32, value uint8) error {
	return written(w.mem.WriteByte(offset, value), offset, 1)
}

func (w *Wrapper) WriteU16(offset uint32, value uint16) error {
	return written(w.mem.WriteUint16Le(offset, value), offset, 2)
}

func (w *Wrapper) WriteU32(offset uint32, value uint32) error {
	return written(w.mem.WriteUint32Le(offset, value), offset, 4)
}

func (w *Wrapper) WriteU64(offset uint32, value uint64) error {
	return written(w.mem.WriteUint64Le(offset, value), offset, 8)
}

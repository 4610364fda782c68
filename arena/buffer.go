package arena

import (
	"encoding/binary"

	wasmcom "github.com/wippyai/wasm-com"
)

// Buffer is a slice-backed linear memory.
type Buffer struct {
	data     []byte
	maxPages uint32
}

var (
	_ wasmcom.Memory       = (*Buffer)(nil)
	_ wasmcom.MemorySizer  = (*Buffer)(nil)
	_ wasmcom.MemoryGrower = (*Buffer)(nil)
)

// NewBuffer creates a memory of pages pages that may grow to maxPages.
// A maxPages of 0 disables growth.
func NewBuffer(pages, maxPages uint32) *Buffer {
	if maxPages < pages {
		maxPages = pages
	}
	return &Buffer{
		data:     make([]byte, int(pages)*wasmcom.PageSize),
		maxPages: maxPages,
	}
}

// Size returns the memory size in bytes.
func (b *Buffer) Size() uint32 {
	return uint32(len(b.data))
}

// Grow extends the memory by deltaPages and returns the previous page count.
func (b *Buffer) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(b.data) / wasmcom.PageSize)
	if deltaPages == 0 {
		return prev, true
	}
	if prev+deltaPages > b.maxPages || prev+deltaPages < prev {
		return prev, false
	}
	b.data = append(b.data, make([]byte, int(deltaPages)*wasmcom.PageSize)...)
	return prev, true
}

func (b *Buffer) span(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(b.data)) {
		return nil, accessError("access", offset, length)
	}
	return b.data[offset:end], nil
}

// Read returns a view of length bytes at offset. The view aliases memory.
func (b *Buffer) Read(offset uint32, length uint32) ([]byte, error) {
	return b.span(offset, length)
}

// Write copies data into memory at offset.
func (b *Buffer) Write(offset uint32, data []byte) error {
	s, err := b.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(s, data)
	return nil
}

func (b *Buffer) ReadU8(offset uint32) (uint8, error) {
	s, err := b.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (b *Buffer) ReadU16(offset uint32) (uint16, error) {
	s, err := b.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s), nil
}

func (b *Buffer) ReadU32(offset uint32) (uint32, error) {
	s, err := b.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s), nil
}

func (b *Buffer) ReadU64(offset uint32) (uint64, error) {
	s, err := b.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s), nil
}

func (b *Buffer) WriteU8(offset uint32, value uint8) error {
	s, err := b.span(offset, 1)
	if err != nil {
		return err
	}
	s[0] = value
	return nil
}

func (b *Buffer) WriteU16(offset uint32, value uint16) error {
	s, err := b.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(s, value)
	return nil
}

func (b *Buffer) WriteU32(offset uint32, value uint32) error {
	s, err := b.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(s, value)
	return nil
}

func (b *Buffer) WriteU64(offset uint32, value uint64) error {
	s, err := b.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(s, value)
	return nil
}

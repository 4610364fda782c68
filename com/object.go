package com

import (
	"math"

	wasmcom "github.com/wippyai/wasm-com"
	"github.com/wippyai/wasm-com/errors"
)

// Object is a view of a live component object. It does not own a
// reference; it is valid until the count reaches zero.
type Object struct {
	class *Class
	base  uint32
}

// Base returns the object address.
func (o *Object) Base() uint32 { return o.base }

// Class returns the class of the object.
func (o *Object) Class() *Class { return o.class }

// Memory returns the memory the object lives in.
func (o *Object) Memory() wasmcom.Memory { return o.class.space.mem }

// RefCount reads the shared reference count.
func (o *Object) RefCount() uint32 {
	return o.class.loadCount(o.base)
}

// Interface returns the interface pointer for implemented interface index
// without adding a reference. It returns a null Ptr for an unknown index.
func (o *Object) Interface(index int) Ptr {
	off, ok := o.class.layout.Offset(index)
	if !ok {
		return Ptr{space: o.class.space}
	}
	return Ptr{space: o.class.space, addr: o.base + off}
}

func (o *Object) field(name string, size uint32) (uint32, error) {
	f, ok := o.class.layout.Field(name)
	if !ok {
		return 0, errors.New(errors.PhaseDispatch, errors.KindNotFound).
			Class(o.class.Name()).
			Path(name).
			Detail("no such field").
			Build()
	}
	if f.Size != size {
		return 0, errors.New(errors.PhaseDispatch, errors.KindTypeMismatch).
			Class(o.class.Name()).
			Path(name).
			Detail("field is %d bytes, accessed as %d", f.Size, size).
			Build()
	}
	return o.base + f.Offset, nil
}

// Bytes returns a copy of the raw bytes of a field.
func (o *Object) Bytes(name string) ([]byte, error) {
	f, ok := o.class.layout.Field(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseDispatch, "field", name)
	}
	b, err := o.Memory().Read(o.base+f.Offset, f.Size)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func (o *Object) Uint8(name string) (uint8, error) {
	addr, err := o.field(name, 1)
	if err != nil {
		return 0, err
	}
	return o.Memory().ReadU8(addr)
}

func (o *Object) SetUint8(name string, v uint8) error {
	addr, err := o.field(name, 1)
	if err != nil {
		return err
	}
	return o.Memory().WriteU8(addr, v)
}

func (o *Object) Uint16(name string) (uint16, error) {
	addr, err := o.field(name, 2)
	if err != nil {
		return 0, err
	}
	return o.Memory().ReadU16(addr)
}

func (o *Object) SetUint16(name string, v uint16) error {
	addr, err := o.field(name, 2)
	if err != nil {
		return err
	}
	return o.Memory().WriteU16(addr, v)
}

func (o *Object) Uint32(name string) (uint32, error) {
	addr, err := o.field(name, 4)
	if err != nil {
		return 0, err
	}
	return o.Memory().ReadU32(addr)
}

func (o *Object) SetUint32(name string, v uint32) error {
	addr, err := o.field(name, 4)
	if err != nil {
		return err
	}
	return o.Memory().WriteU32(addr, v)
}

func (o *Object) Uint64(name string) (uint64, error) {
	addr, err := o.field(name, 8)
	if err != nil {
		return 0, err
	}
	return o.Memory().ReadU64(addr)
}

func (o *Object) SetUint64(name string, v uint64) error {
	addr, err := o.field(name, 8)
	if err != nil {
		return err
	}
	return o.Memory().WriteU64(addr, v)
}

func (o *Object) Int32(name string) (int32, error) {
	v, err := o.Uint32(name)
	return int32(v), err
}

func (o *Object) SetInt32(name string, v int32) error {
	return o.SetUint32(name, uint32(v))
}

func (o *Object) Int64(name string) (int64, error) {
	v, err := o.Uint64(name)
	return int64(v), err
}

func (o *Object) SetInt64(name string, v int64) error {
	return o.SetUint64(name, uint64(v))
}

func (o *Object) Float32(name string) (float32, error) {
	v, err := o.Uint32(name)
	return math.Float32frombits(v), err
}

func (o *Object) SetFloat32(name string, v float32) error {
	return o.SetUint32(name, math.Float32bits(v))
}

func (o *Object) Float64(name string) (float64, error) {
	v, err := o.Uint64(name)
	return math.Float64frombits(v), err
}

func (o *Object) SetFloat64(name string, v float64) error {
	return o.SetUint64(name, math.Float64bits(v))
}

func (o *Object) Bool(name string) (bool, error) {
	v, err := o.Uint8(name)
	return v != 0, err
}

func (o *Object) SetBool(name string, v bool) error {
	var b uint8
	if v {
		b = 1
	}
	return o.SetUint8(name, b)
}

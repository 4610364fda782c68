package idl

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-com/errors"
)

// Type names understood in definition files.
const (
	TypeHRESULT = "hresult"
	TypePtr     = "ptr"
)

var scalars = map[string]wit.Type{
	"bool": wit.Bool{},
	"u8":   wit.U8{},
	"s8":   wit.S8{},
	"u16":  wit.U16{},
	"s16":  wit.S16{},
	"u32":  wit.U32{},
	"s32":  wit.S32{},
	"u64":  wit.U64{},
	"s64":  wit.S64{},
	"f32":  wit.F32{},
	"f64":  wit.F64{},
	"char": wit.Char{},
}

// ParseType resolves a type name. ptr reports a pointer parameter, which
// has no WIT type.
func ParseType(name string) (t wit.Type, ptr bool, err error) {
	switch name {
	case TypePtr:
		return nil, true, nil
	case TypeHRESULT:
		return wit.S32{}, false, nil
	}
	if t, ok := scalars[name]; ok {
		return t, false, nil
	}
	return nil, false, errors.New(errors.PhaseParse, errors.KindUnsupported).
		Value(name).
		Detail("unknown type %q", name).
		Build()
}

// TypeName returns the definition-file name of a scalar type, or "" if t
// has none.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	default:
		return ""
	}
}

package abi

import (
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
)

// Flattening limits for the uniform calling convention. Parameters include
// the implicit self pointer.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// PointerType returns the core value type of a pointer of the given width.
func PointerType(width uint32) api.ValueType {
	if width == 8 {
		return api.ValueTypeI64
	}
	return api.ValueTypeI32
}

// Flatten flattens a WIT type to core value types.
func Flatten(t wit.Type) ([]api.ValueType, error) {
	if t == nil {
		return nil, nil
	}

	switch v := t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return []api.ValueType{api.ValueTypeI32}, nil
	case wit.U64, wit.S64:
		return []api.ValueType{api.ValueTypeI64}, nil
	case wit.F32:
		return []api.ValueType{api.ValueTypeF32}, nil
	case wit.F64:
		return []api.ValueType{api.ValueTypeF64}, nil
	case wit.String:
		return nil, fmt.Errorf("string is not passable by value")
	case *wit.TypeDef:
		return flattenTypeDef(v)
	default:
		return nil, fmt.Errorf("unsupported type %T", t)
	}
}

// FlattenAll flattens a sequence of types in order.
func FlattenAll(types []wit.Type) ([]api.ValueType, error) {
	var flat []api.ValueType
	for _, t := range types {
		f, err := Flatten(t)
		if err != nil {
			return nil, err
		}
		flat = append(flat, f...)
	}
	return flat, nil
}

func flattenTypeDef(td *wit.TypeDef) ([]api.ValueType, error) {
	if td == nil || td.Kind == nil {
		return nil, fmt.Errorf("empty type definition")
	}

	switch kind := td.Kind.(type) {
	case *wit.Record:
		var flat []api.ValueType
		for _, field := range kind.Fields {
			f, err := Flatten(field.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			flat = append(flat, f...)
		}
		return flat, nil
	case *wit.Tuple:
		return FlattenAll(kind.Types)
	case *wit.Enum:
		return []api.ValueType{api.ValueTypeI32}, nil
	case *wit.Flags:
		if len(kind.Flags) > 32 {
			return []api.ValueType{api.ValueTypeI64}, nil
		}
		return []api.ValueType{api.ValueTypeI32}, nil
	case *wit.Option:
		inner, err := Flatten(kind.Type)
		if err != nil {
			return nil, err
		}
		return append([]api.ValueType{api.ValueTypeI32}, inner...), nil
	case *wit.Result:
		var payload []api.ValueType
		for _, t := range []wit.Type{kind.OK, kind.Err} {
			if t == nil {
				continue
			}
			f, err := Flatten(t)
			if err != nil {
				return nil, err
			}
			payload = join(payload, f)
		}
		return append([]api.ValueType{api.ValueTypeI32}, payload...), nil
	case *wit.Variant:
		var payload []api.ValueType
		for _, c := range kind.Cases {
			if c.Type == nil {
				continue
			}
			f, err := Flatten(c.Type)
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", c.Name, err)
			}
			payload = join(payload, f)
		}
		return append([]api.ValueType{api.ValueTypeI32}, payload...), nil
	case *wit.List:
		return nil, fmt.Errorf("list is not passable by value")
	case *wit.Own, *wit.Borrow:
		return nil, fmt.Errorf("resource handles are not supported")
	case wit.Type:
		return Flatten(kind)
	default:
		return nil, fmt.Errorf("unsupported type kind %T", td.Kind)
	}
}

func join(payload, next []api.ValueType) []api.ValueType {
	for i, ft := range next {
		if i < len(payload) {
			payload[i] = joinTypes(payload[i], ft)
		} else {
			payload = append(payload, ft)
		}
	}
	return payload
}

func joinTypes(a, b api.ValueType) api.ValueType {
	if a == b {
		return a
	}
	if (a == api.ValueTypeI32 && b == api.ValueTypeF32) || (a == api.ValueTypeF32 && b == api.ValueTypeI32) {
		return api.ValueTypeI32
	}
	return api.ValueTypeI64
}

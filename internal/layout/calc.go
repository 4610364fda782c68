package layout

import (
	"github.com/wippyai/wasm-com/internal/abi"
	"go.bytecodealliance.org/wit"
)

// Info is the size and alignment of a type.
type Info struct {
	Size        uint32
	Align       uint32
	Unsupported bool
}

// Field is one named member of a payload.
type Field struct {
	Name string
	Type wit.Type
}

// Placed is a payload field with its resolved offset.
type Placed struct {
	Field
	Info
	Offset uint32
}

// Record is the layout of a sequence of fields placed from a start offset.
type Record struct {
	Fields []Placed
	End    uint32 // offset one past the last field, unpadded
	Align  uint32 // strictest field alignment, at least 1
}

type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4, Unsupported: true}
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return Info{Size: 0, Align: 1, Unsupported: true}
	}
}

// Fields places fields sequentially starting at start.
func (c *Calculator) Fields(start uint32, fields []Field) Record {
	rec := Record{
		Fields: make([]Placed, 0, len(fields)),
		Align:  1,
	}
	offset := start
	for _, f := range fields {
		info := c.Calculate(f.Type)
		offset = abi.AlignTo(offset, info.Align)
		rec.Fields = append(rec.Fields, Placed{Field: f, Info: info, Offset: offset})
		if info.Align > rec.Align {
			rec.Align = info.Align
		}
		offset += info.Size
	}
	rec.End = offset
	return rec
}

func (c *Calculator) calculateTypeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info

	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info = c.calculateSequence(types)
	case *wit.Tuple:
		info = c.calculateSequence(kind.Types)
	case *wit.Variant:
		payloads := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			payloads[i] = cs.Type
		}
		info = c.calculateTagged(abi.DiscriminantSize(len(kind.Cases)), payloads)
	case *wit.Enum:
		size := abi.DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.Option:
		info = c.calculateTagged(1, []wit.Type{kind.Type})
	case *wit.Result:
		info = c.calculateTagged(1, []wit.Type{kind.OK, kind.Err})
	case *wit.Flags:
		info = calculateFlags(len(kind.Flags))
	case *wit.List, *wit.Own, *wit.Borrow:
		info = Info{Size: 8, Align: 4, Unsupported: true}
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1, Unsupported: true}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) calculateSequence(types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	maxAlign := uint32(1)
	offset := uint32(0)
	unsupported := false

	for _, typ := range types {
		elem := c.Calculate(typ)
		unsupported = unsupported || elem.Unsupported
		offset = abi.AlignTo(offset, elem.Align)
		if elem.Align > maxAlign {
			maxAlign = elem.Align
		}
		offset += elem.Size
	}

	return Info{
		Size:        abi.AlignTo(offset, maxAlign),
		Align:       maxAlign,
		Unsupported: unsupported,
	}
}

// calculateTagged lays out a discriminant followed by the largest payload.
// Nil payloads are empty cases.
func (c *Calculator) calculateTagged(discSize uint32, payloads []wit.Type) Info {
	maxAlign := discSize
	maxSize := uint32(0)
	unsupported := false

	for _, p := range payloads {
		if p == nil {
			continue
		}
		pl := c.Calculate(p)
		unsupported = unsupported || pl.Unsupported
		if pl.Align > maxAlign {
			maxAlign = pl.Align
		}
		if pl.Size > maxSize {
			maxSize = pl.Size
		}
	}

	payloadOffset := abi.AlignTo(discSize, maxAlign)
	return Info{
		Size:        abi.AlignTo(payloadOffset+maxSize, maxAlign),
		Align:       maxAlign,
		Unsupported: unsupported,
	}
}

func calculateFlags(numFlags int) Info {
	switch {
	case numFlags == 0:
		return Info{Size: 0, Align: 1}
	case numFlags <= 8:
		return Info{Size: 1, Align: 1}
	case numFlags <= 16:
		return Info{Size: 2, Align: 2}
	case numFlags <= 32:
		return Info{Size: 4, Align: 4}
	}
	// more than 32 flags: a run of u32 words
	numU32s := (numFlags + 31) / 32
	return Info{Size: uint32(numU32s * 4), Align: 4}
}

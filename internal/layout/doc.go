// Package layout computes canonical ABI sizes, alignments and field offsets
// for the user payload of component objects.
//
// # Layout Rules
//
//   - Primitives: size equals alignment (u8=1, u32=4, u64=8, etc.)
//   - Records and tuples: fields laid out sequentially with padding
//   - Variants, options, results: discriminant followed by the largest payload
//   - Enums and flags: smallest integer holding every case or bit
//
// Strings, lists and resource handles are not valid payload types; the
// calculator reports them through Info.Unsupported.
//
// # Usage
//
//	calc := layout.NewCalculator()
//	info := calc.Calculate(witType)
//	rec := calc.Fields(start, fields)
//
// This package is internal to the module.
package layout

// Package abi provides the low-level rules shared by the vtable layout
// compiler and the object layout builder.
//
// # Contents
//
//   - align.go: alignment and checked arithmetic on 32-bit offsets
//   - flatten.go: flattening of WIT value types to core value types for the
//     uniform calling convention
//
// Method signatures may only use types that flatten without touching linear
// memory: scalars, enums, flags, records, tuples, options, results and
// variants of those. Strings, lists and resource handles carry pointers into
// memory that the object model does not own and are rejected.
//
// This package is internal to the module.
package abi

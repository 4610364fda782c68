// Package gen generates typed Go caller stubs for interfaces.
//
// For every interface it emits a struct embedding com.Ptr with one method
// per vtable slot after the IUnknown slots, inherited methods included.
// Each method flattens its arguments, calls com.Ptr.Invoke at the slot
// index the vtable layout compiler assigned, and decodes the result.
// A Query function wraps com.GetInterface for the interface identifier.
//
// Only scalar parameter and result types are supported. s32 results are
// typed as hresult.HRESULT.
package gen

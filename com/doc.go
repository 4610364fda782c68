// Package com builds component objects in linear memory.
//
// A class is defined with Define, registered into a Space and instantiated
// with Class.New. Each object is one heap block:
//
//	base + 0*w        dispatch pointer of interface 0 -> vtable 0
//	base + 1*w        dispatch pointer of interface 1 -> vtable 1
//	...
//	base + N*w        reference count (u32)
//	base + N*w + 4    payload fields, canonical ABI record layout
//
// where w is the pointer width. Each vtable is a separate heap block of
// w-sized slots holding function table indices; slots 0, 1 and 2 are
// query-interface, add-ref and release for every interface.
//
// An interface pointer is base + i*w. The thunks bound to interface i
// subtract that offset to recover the object, then run the shared lifetime
// and resolver code or the user's method body. Objects are born with count
// 0; the count reaching 0 again through release frees the vtables and then
// the object, and nothing else ever frees them.
//
// Reference count overflow and underflow, and pointers that do not recover
// to a live object of the class, are programming errors. They are logged at
// error level and panic with an *errors.Error.
package com

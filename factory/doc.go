// Package factory implements class factories: activation of component
// objects by class identifier.
//
// A Registry owns one factory object per registered class. Factory objects
// are ordinary component objects built with package com and implement
// IClassFactory, so foreign callers holding a factory pointer drive
// activation through the same vtable mechanism as any other interface.
//
//	reg, _ := factory.NewRegistry(space)
//	reg.Register(CLSID_Cat, catClass)
//	cat, err := reg.CreateInstance(ctx, CLSID_Cat, ICat.IID)
//	// cat carries one reference
//
// Aggregation is not supported: a non-null outer pointer yields
// CLASS_E_NOAGGREGATION.
package factory

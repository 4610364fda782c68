// Package errors provides structured error types for the component object model.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the interface and class involved, a path, the offending
// value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDefine, errors.KindInvalidInput).
//		Interface("IFood").
//		Path("consume-food").
//		Detail("duplicate method name").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseActivate, "class", clsid.String())
//	err := errors.OutOfBounds(errors.PhaseMemory, nil, 10, 5)
//
// Fatal conditions (reference count overflow or underflow, double free) are
// raised as panics carrying an *Error. All errors implement the standard error
// interface and support errors.Is/As.
package errors

// Package hresult defines the signed 32-bit status codes returned across the
// binary interface.
//
// Non-negative values denote success, negative values denote failure. The
// well-known failure codes keep their conventional bit patterns so that
// independently compiled consumers can compare them directly.
package hresult

import "fmt"

// HRESULT is a signed 32-bit status code.
type HRESULT int32

const (
	S_OK    HRESULT = 0
	S_FALSE HRESULT = 1

	E_NOTIMPL     HRESULT = -0x7fffbfff // 0x80004001
	E_NOINTERFACE HRESULT = -0x7fffbffe // 0x80004002
	E_POINTER     HRESULT = -0x7fffbffd // 0x80004003
	E_ABORT       HRESULT = -0x7fffbffc // 0x80004004
	E_FAIL        HRESULT = -0x7fffbffb // 0x80004005
	E_UNEXPECTED  HRESULT = -0x7fff0001 // 0x8000FFFF
	E_OUTOFMEMORY HRESULT = -0x7ff8fff2 // 0x8007000E
	E_INVALIDARG  HRESULT = -0x7ff8ffa9 // 0x80070057

	CLASS_E_NOAGGREGATION     HRESULT = -0x7ffbfef0 // 0x80040110
	CLASS_E_CLASSNOTAVAILABLE HRESULT = -0x7ffbfeef // 0x80040111
)

// NOERROR is an alias of S_OK.
const NOERROR = S_OK

var names = map[HRESULT]string{
	S_OK:                      "S_OK",
	S_FALSE:                   "S_FALSE",
	E_NOTIMPL:                 "E_NOTIMPL",
	E_NOINTERFACE:             "E_NOINTERFACE",
	E_POINTER:                 "E_POINTER",
	E_ABORT:                   "E_ABORT",
	E_FAIL:                    "E_FAIL",
	E_UNEXPECTED:              "E_UNEXPECTED",
	E_OUTOFMEMORY:             "E_OUTOFMEMORY",
	E_INVALIDARG:              "E_INVALIDARG",
	CLASS_E_NOAGGREGATION:     "CLASS_E_NOAGGREGATION",
	CLASS_E_CLASSNOTAVAILABLE: "CLASS_E_CLASSNOTAVAILABLE",
}

// Succeeded reports whether h denotes success.
func Succeeded(h HRESULT) bool { return h >= 0 }

// Failed reports whether h denotes failure.
func Failed(h HRESULT) bool { return h < 0 }

// Succeeded reports whether h denotes success.
func (h HRESULT) Succeeded() bool { return h >= 0 }

// Failed reports whether h denotes failure.
func (h HRESULT) Failed() bool { return h < 0 }

// Uint32 returns the raw bit pattern.
func (h HRESULT) Uint32() uint32 { return uint32(h) }

// FromUint64 converts a flat i32 value from a call stack into an HRESULT.
func FromUint64(v uint64) HRESULT { return HRESULT(int32(uint32(v))) }

// Uint64 encodes h as a flat i32 value for a call stack.
func (h HRESULT) Uint64() uint64 { return uint64(uint32(h)) }

func (h HRESULT) String() string {
	if name, ok := names[h]; ok {
		return name
	}
	return fmt.Sprintf("HRESULT(0x%08X)", uint32(h))
}

// Error implements error so a failed code can be compared with errors.Is.
func (h HRESULT) Error() string {
	return h.String()
}

// Err returns nil for success codes and h as an error otherwise.
func (h HRESULT) Err() error {
	if h.Succeeded() {
		return nil
	}
	return h
}

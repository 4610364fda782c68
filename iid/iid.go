// Package iid implements 128-bit interface identifiers.
//
// An IID is laid out in memory as {u32, u16, u16, [8]u8} with the three
// integer members little-endian and no padding, 16 bytes in total. The text
// form is the canonical 8-4-4-4-12 hexadecimal representation, parsed and
// printed through github.com/google/uuid.
package iid

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Size is the encoded size of an IID in bytes.
const Size = 16

// IID is an interface (or class) identifier.
type IID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

// CLSID identifies a class. It shares the IID layout.
type CLSID = IID

var (
	// Nil is the all-zero identifier.
	Nil = IID{}

	// IUnknown identifies the universal root interface.
	IUnknown = MustParse("00000000-0000-0000-c000-000000000046")

	// IClassFactory identifies the class factory interface.
	IClassFactory = MustParse("00000001-0000-0000-c000-000000000046")
)

// Parse parses the canonical text form, with or without braces.
func Parse(s string) (IID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return IID{}, fmt.Errorf("iid: parse %q: %w", s, err)
	}
	return FromUUID(u), nil
}

// MustParse is like Parse but panics on malformed input. It is meant for
// package-level identifier constants.
func MustParse(s string) IID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// FromUUID converts a UUID (big-endian field order) to an IID.
func FromUUID(u uuid.UUID) IID {
	var id IID
	id.Data1 = binary.BigEndian.Uint32(u[0:4])
	id.Data2 = binary.BigEndian.Uint16(u[4:6])
	id.Data3 = binary.BigEndian.Uint16(u[6:8])
	copy(id.Data4[:], u[8:16])
	return id
}

// UUID returns the identifier in UUID field order.
func (id IID) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[0:4], id.Data1)
	binary.BigEndian.PutUint16(u[4:6], id.Data2)
	binary.BigEndian.PutUint16(u[6:8], id.Data3)
	copy(u[8:16], id.Data4[:])
	return u
}

// Bytes returns the 16-byte binary layout.
func (id IID) Bytes() [Size]byte {
	var b [Size]byte
	id.Put(b[:])
	return b
}

// Put encodes id into b, which must be at least Size bytes long.
func (id IID) Put(b []byte) {
	_ = b[Size-1]
	binary.LittleEndian.PutUint32(b[0:4], id.Data1)
	binary.LittleEndian.PutUint16(b[4:6], id.Data2)
	binary.LittleEndian.PutUint16(b[6:8], id.Data3)
	copy(b[8:16], id.Data4[:])
}

// Decode reads an identifier from its 16-byte binary layout.
func Decode(b []byte) (IID, error) {
	if len(b) < Size {
		return IID{}, fmt.Errorf("iid: decode: need %d bytes, got %d", Size, len(b))
	}
	var id IID
	id.Data1 = binary.LittleEndian.Uint32(b[0:4])
	id.Data2 = binary.LittleEndian.Uint16(b[4:6])
	id.Data3 = binary.LittleEndian.Uint16(b[6:8])
	copy(id.Data4[:], b[8:16])
	return id, nil
}

// Equal reports byte-wise equality.
func (id IID) Equal(other IID) bool {
	return id == other
}

// IsNil reports whether id is the all-zero identifier.
func (id IID) IsNil() bool {
	return id == Nil
}

func (id IID) String() string {
	return id.UUID().String()
}

// GoString renders id as a composite literal.
func (id IID) GoString() string {
	return fmt.Sprintf("iid.IID{Data1: 0x%08x, Data2: 0x%04x, Data3: 0x%04x, Data4: [8]byte{0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x, 0x%02x}}",
		id.Data1, id.Data2, id.Data3,
		id.Data4[0], id.Data4[1], id.Data4[2], id.Data4[3],
		id.Data4[4], id.Data4[5], id.Data4[6], id.Data4[7])
}

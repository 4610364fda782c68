package iid

import (
	"strings"
	"testing"
	"unsafe"

	"github.com/google/uuid"
)

func TestParse(t *testing.T) {
	id, err := Parse("f5353c58-cfd9-4204-8d92-d274c7578b53")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := IID{
		Data1: 0xf5353c58,
		Data2: 0xcfd9,
		Data3: 0x4204,
		Data4: [8]byte{0x8d, 0x92, 0xd2, 0x74, 0xc7, 0x57, 0x8b, 0x53},
	}
	if id != want {
		t.Errorf("Parse = %#v, want %#v", id, want)
	}
	if id.String() != "f5353c58-cfd9-4204-8d92-d274c7578b53" {
		t.Errorf("String = %q", id.String())
	}
}

func TestParse_Braces(t *testing.T) {
	id, err := Parse("{4FC333E3-C389-4C48-B108-7895B0AF21AD}")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if id.Data1 != 0x4fc333e3 || id.Data4[7] != 0xad {
		t.Errorf("unexpected %#v", id)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, s := range []string{"", "not-an-iid", "00000000-0000-0000-c000-00000000004"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse should panic on bad input")
		}
	}()
	MustParse("zzz")
}

func TestWellKnown(t *testing.T) {
	if IUnknown.Data1 != 0 || IUnknown.Data4 != [8]byte{0xc0, 0, 0, 0, 0, 0, 0, 0x46} {
		t.Errorf("IUnknown = %#v", IUnknown)
	}
	if IClassFactory.Data1 != 1 {
		t.Errorf("IClassFactory = %#v", IClassFactory)
	}
	if IUnknown.Equal(IClassFactory) {
		t.Error("IUnknown and IClassFactory must differ")
	}
}

func TestBinaryLayout(t *testing.T) {
	if unsafe.Sizeof(IID{}) != Size {
		t.Fatalf("IID struct has padding: %d bytes", unsafe.Sizeof(IID{}))
	}

	id := MustParse("14f486bf-408d-43be-8a34-bbfa56980a37")
	b := id.Bytes()
	want := []byte{
		0xbf, 0x86, 0xf4, 0x14, // Data1 little-endian
		0x8d, 0x40, // Data2
		0xbe, 0x43, // Data3
		0x8a, 0x34, 0xbb, 0xfa, 0x56, 0x98, 0x0a, 0x37,
	}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d = 0x%02x, want 0x%02x (got % x)", i, b[i], want[i], b)
		}
	}

	back, err := Decode(b[:])
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if back != id {
		t.Errorf("Decode = %v, want %v", back, id)
	}
}

func TestDecode_Short(t *testing.T) {
	if _, err := Decode(make([]byte, 15)); err == nil {
		t.Error("Decode should reject short input")
	}
}

func TestUUIDConversion(t *testing.T) {
	u := uuid.MustParse("d17892d4-40d9-4323-b318-fa49ece56552")
	id := FromUUID(u)
	if id.UUID() != u {
		t.Errorf("UUID() = %v, want %v", id.UUID(), u)
	}
	if !strings.Contains(id.GoString(), "0xd17892d4") {
		t.Errorf("GoString = %s", id.GoString())
	}
}

func TestIsNil(t *testing.T) {
	if !Nil.IsNil() || IUnknown.IsNil() {
		t.Error("IsNil mismatch")
	}
}

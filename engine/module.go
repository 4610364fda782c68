package engine

import "bytes"

const memoryExport = "memory"

const (
	sectionMemory = 5
	sectionExport = 7
	externMemory  = 2
)

// memoryModule encodes a module with one memory of minPages pages (and maxPages, if
// non-zero) exported as "memory".
func memoryModule(minPages, maxPages uint32) []byte {
	var limits []byte
	if maxPages == 0 {
		limits = append([]byte{0x00}, uleb128(minPages)...)
	} else {
		limits = append([]byte{0x01}, uleb128(minPages)...)
		limits = append(limits, uleb128(maxPages)...)
	}
	memSec := append([]byte{0x01}, limits...)

	var exp bytes.Buffer
	exp.WriteByte(0x01)
	exp.Write(uleb128(uint32(len(memoryExport))))
	exp.WriteString(memoryExport)
	exp.WriteByte(externMemory)
	exp.WriteByte(0x00)

	var out bytes.Buffer
	out.Write([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	writeSection(&out, sectionMemory, memSec)
	writeSection(&out, sectionExport, exp.Bytes())
	return out.Bytes()
}

func writeSection(out *bytes.Buffer, id byte, body []byte) {
	out.WriteByte(id)
	out.Write(uleb128(uint32(len(body))))
	out.Write(body)
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}

package arch

import (
	"encoding/binary"
	"fmt"

	"dissect/internal/disasm"
)

// ByteOrder maps the endianness bit of m to a byte order.
func ByteOrder(m disasm.Mode) binary.ByteOrder {
	if m.BigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// SwapWord returns a little-endian copy of the first four bytes of a
// big-endian word, for libraries that only read little-endian input.
func SwapWord(code []byte) []byte {
	return []byte{code[3], code[2], code[1], code[0]}
}

// Imm renders an immediate the way Capstone does: small magnitudes in
// decimal, everything else in hex with the sign in front.
func Imm(v int64) string {
	switch {
	case v >= 0 && v <= 9:
		return fmt.Sprintf("%d", v)
	case v < 0 && v >= -9:
		return fmt.Sprintf("-%d", -v)
	case v < 0:
		return fmt.Sprintf("-%#x", uint64(-v))
	}
	return fmt.Sprintf("%#x", v)
}

// Addr renders an absolute target address.
func Addr(v uint64) string { return fmt.Sprintf("%#x", v) }

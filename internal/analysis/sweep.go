package analysis

import (
	"fmt"

	"github.com/charmbracelet/log"

	"dissect/internal/disasm"
	"dissect/internal/engine"
)

// DataMnemonic is the mnemonic of records Sweep emits for bytes that do
// not decode.
const DataMnemonic = ".byte"

// Sweep decodes code like engine.Handle.Decode but does not stop at the
// first malformed instruction: it emits a one-byte data record and resumes
// at the next byte. count limits the number of records, data included; zero
// or less means no limit. lg may be nil.
func Sweep(h *engine.Handle, code []byte, addr uint64, count int, lg *log.Logger) (disasm.Stream, error) {
	var out disasm.Stream
	off := 0
	skipped := 0
	for off < len(code) && (count <= 0 || len(out) < count) {
		limit := 0
		if count > 0 {
			limit = count - len(out)
		}
		s, err := h.Decode(code[off:], addr+uint64(off), limit)
		if err != nil {
			return out, err
		}
		out = append(out, s...)
		off += s.Consumed()
		if off >= len(code) || (count > 0 && len(out) >= count) {
			break
		}
		out = append(out, DataRecord(addr+uint64(off), code[off], h.Reduced()))
		off++
		skipped++
	}
	if lg != nil && skipped > 0 {
		lg.Debug("sweep skipped undecodable bytes", "arch", h.Arch(), "addr", fmt.Sprintf("%#x", addr), "bytes", skipped)
	}
	return out, nil
}

// DataRecord is the record Sweep emits for an undecodable byte.
func DataRecord(addr uint64, b byte, reduced bool) disasm.Inst {
	return disasm.NewInst(0, addr, []byte{b}, DataMnemonic, fmt.Sprintf("0x%02x", b), nil, reduced)
}

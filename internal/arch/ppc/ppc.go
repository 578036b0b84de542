// Package ppc decodes 32 and 64-bit Power code through ppc64asm in
// either byte order.
package ppc

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/arch/ppc64/ppc64asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// Prefixed (ISA 3.1) instructions take two words.
const maxInsnLen = 8

// ppc64asm records decoder coverage in a package-level table.
var libMu sync.Mutex

// Decoder implements arch.Decoder for PPC.
type Decoder struct{}

var _ arch.Decoder = Decoder{}

func New() Decoder { return Decoder{} }

func (Decoder) Arch() disasm.Arch            { return disasm.ArchPPC }
func (Decoder) DefaultSyntax() disasm.Syntax { return disasm.SyntaxDefault }
func (Decoder) MaxInsnSize() int             { return maxInsnLen }

func (Decoder) ValidateMode(m disasm.Mode) error {
	if illegal := m &^ (disasm.Mode32 | disasm.Mode64 | disasm.ModeBigEndian); illegal != 0 {
		return fmt.Errorf("ppc: mode bits %#x: %w", uint32(illegal), disasm.ErrMode)
	}
	if m.Has(disasm.Mode32) && m.Has(disasm.Mode64) {
		return fmt.Errorf("ppc: mode %s has two widths: %w", m, disasm.ErrMode)
	}
	return nil
}

func (Decoder) ValidateSyntax(s disasm.Syntax) error {
	switch s {
	case disasm.SyntaxDefault, disasm.SyntaxNoRegName:
		return nil
	}
	return fmt.Errorf("ppc: syntax %s: %w", s, disasm.ErrOption)
}

func (Decoder) RegName(id uint) (string, bool) { return regName(id) }

func (Decoder) InsnName(id uint) (string, bool) {
	if id == 0 || id > 0xFFFF {
		return "", false
	}
	name := ppc64asm.Op(id).String()
	if strings.HasPrefix(name, "Op(") {
		return "", false
	}
	return name, true
}

func (Decoder) GroupName(id uint) (string, bool) { return arch.GroupName(id, groupNames) }

func (Decoder) Decode(code []byte, addr uint64, mode disasm.Mode, syntax disasm.Syntax) (arch.Decoded, error) {
	if len(code) < 4 {
		return arch.Decoded{}, arch.ErrShort
	}
	libMu.Lock()
	inst, err := ppc64asm.Decode(code, arch.ByteOrder(mode))
	libMu.Unlock()
	switch {
	case err != nil && inst.Len > len(code):
		return arch.Decoded{}, arch.ErrShort
	case err != nil, inst.Op == 0:
		return arch.Decoded{}, arch.ErrInvalid
	}

	text := ppc64asm.GNUSyntax(inst, addr)
	if strings.HasPrefix(text, ".") {
		// .long and .quad mark encodings the formatter refuses.
		return arch.Decoded{}, arch.ErrInvalid
	}
	text = strings.ReplaceAll(text, ".+0x0", arch.Addr(addr))
	mnemonic, opStr, _ := strings.Cut(text, " ")
	opStr = spaceCommas(opStr)
	if syntax == disasm.SyntaxNoRegName {
		opStr = bareRegs(opStr)
	}

	return arch.Decoded{
		ID:       uint(inst.Op),
		Size:     inst.Len,
		Mnemonic: mnemonic,
		OpStr:    opStr,
		Effects:  effects(&inst),
		Operands: operands(&inst, addr),
	}, nil
}

func spaceCommas(s string) string { return strings.ReplaceAll(s, ",", ", ") }

var regPrefix = regexp.MustCompile(`\b(?:vs|r|f|v|cr)(\d+)\b`)

// bareRegs prints registers as plain numbers.
func bareRegs(s string) string { return regPrefix.ReplaceAllString(s, "$1") }

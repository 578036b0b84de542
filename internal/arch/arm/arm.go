// Package arm decodes 32-bit ARM code: A32 through armasm and Thumb with
// a table of the 16-bit encodings.
package arm

import (
	"fmt"

	"golang.org/x/arch/arm/armasm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// Decoder implements arch.Decoder for ARM.
type Decoder struct{}

var _ arch.Decoder = Decoder{}

func New() Decoder { return Decoder{} }

func (Decoder) Arch() disasm.Arch            { return disasm.ArchARM }
func (Decoder) DefaultSyntax() disasm.Syntax { return disasm.SyntaxDefault }
func (Decoder) MaxInsnSize() int             { return 4 }

func (Decoder) ValidateMode(m disasm.Mode) error {
	if illegal := m &^ (disasm.ModeThumb | disasm.Mode32 | disasm.ModeBigEndian); illegal != 0 {
		return fmt.Errorf("arm: mode bits %#x: %w", uint32(illegal), disasm.ErrMode)
	}
	return nil
}

func (Decoder) ValidateSyntax(s disasm.Syntax) error {
	switch s {
	case disasm.SyntaxDefault, disasm.SyntaxNoRegName:
		return nil
	}
	return fmt.Errorf("arm: syntax %s: %w", s, disasm.ErrOption)
}

func (Decoder) RegName(id uint) (string, bool) { return regName(id, false) }

func (Decoder) InsnName(id uint) (string, bool) {
	if id >= ThumbBase {
		return thumbName(id)
	}
	op := armasm.Op(id)
	if id > 0xFFFF || !validOp(op) {
		return "", false
	}
	return opName(op), true
}

func (Decoder) GroupName(id uint) (string, bool) { return arch.GroupName(id, nil) }

func (Decoder) Decode(code []byte, addr uint64, mode disasm.Mode, syntax disasm.Syntax) (arch.Decoded, error) {
	var (
		in  *insn
		err error
	)
	if mode.Has(disasm.ModeThumb) {
		in, err = decodeThumb(code, addr, mode)
	} else {
		in, err = decodeA32(code, addr, mode)
	}
	if err != nil {
		return arch.Decoded{}, err
	}
	return in.decoded(syntax == disasm.SyntaxNoRegName), nil
}

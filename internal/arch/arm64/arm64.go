// Package arm64 decodes A64 code through arm64asm.
package arm64

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/arch/arm64/arm64asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// arm64asm records decoder coverage in a package-level table.
var libMu sync.Mutex

// Decoder implements arch.Decoder for ARM64.
type Decoder struct{}

var _ arch.Decoder = Decoder{}

func New() Decoder { return Decoder{} }

func (Decoder) Arch() disasm.Arch            { return disasm.ArchARM64 }
func (Decoder) DefaultSyntax() disasm.Syntax { return disasm.SyntaxDefault }
func (Decoder) MaxInsnSize() int             { return 4 }

func (Decoder) ValidateMode(m disasm.Mode) error {
	if illegal := m &^ (disasm.Mode64 | disasm.ModeBigEndian); illegal != 0 {
		return fmt.Errorf("arm64: mode bits %#x: %w", uint32(illegal), disasm.ErrMode)
	}
	return nil
}

func (Decoder) ValidateSyntax(s disasm.Syntax) error {
	if s != disasm.SyntaxDefault {
		return fmt.Errorf("arm64: syntax %s: %w", s, disasm.ErrOption)
	}
	return nil
}

func (Decoder) RegName(id uint) (string, bool) { return regName(id) }

func (Decoder) InsnName(id uint) (string, bool) {
	if id == 0 || id > 0xFFFF {
		return "", false
	}
	name := arm64asm.Op(id).String()
	if strings.HasPrefix(name, "Op(") {
		return "", false
	}
	return strings.ToLower(name), true
}

func (Decoder) GroupName(id uint) (string, bool) { return arch.GroupName(id, nil) }

func (Decoder) Decode(code []byte, addr uint64, mode disasm.Mode, _ disasm.Syntax) (arch.Decoded, error) {
	if len(code) < 4 {
		return arch.Decoded{}, arch.ErrShort
	}
	word := code[:4]
	if mode.BigEndian() {
		word = arch.SwapWord(code)
	}
	libMu.Lock()
	inst, err := arm64asm.Decode(word)
	libMu.Unlock()
	if err != nil {
		return arch.Decoded{}, arch.ErrInvalid
	}

	mnemonic, args := split(inst)
	parts := make([]string, 0, len(args))
	for _, a := range args {
		if s := argText(a, addr); s != "" {
			parts = append(parts, s)
		}
	}

	b := &builder{
		out:   &disasm.ARM64Operands{UpdateFlags: flagWriters[inst.Op]},
		shape: shapeOf(inst.Op),
	}
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		b.arg(a, addr)
	}

	return arch.Decoded{
		ID:       uint(inst.Op),
		Size:     4,
		Mnemonic: mnemonic,
		OpStr:    strings.Join(parts, ", "),
		Effects:  effects(inst),
		Operands: b.out,
	}, nil
}

// split picks the mnemonic and the arguments that appear in the operand
// text. Conditional branches carry the condition in the mnemonic and a
// return through x30 prints bare.
func split(inst arm64asm.Inst) (string, []arm64asm.Arg) {
	var args []arm64asm.Arg
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		args = append(args, a)
	}
	name := strings.ToLower(inst.Op.String())
	if len(args) == 0 {
		return name, nil
	}
	switch inst.Op {
	case arm64asm.B:
		if c, ok := args[0].(arm64asm.Cond); ok {
			return "b." + strings.ToLower(c.String()), args[1:]
		}
	case arm64asm.RET:
		if r, ok := args[0].(arm64asm.Reg); ok && r == arm64asm.X30 {
			return name, nil
		}
	case arm64asm.ISB:
		if o, ok := args[0].(arm64asm.Imm_option); ok && o == 15 {
			return name, nil
		}
	}
	return name, args
}

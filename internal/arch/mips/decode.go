// Package mips decodes MIPS32 and MIPS64 instructions.
package mips

import (
	"fmt"
	"strings"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// Arch-specific groups.
const (
	GroupMIPS64 = disasm.GroupArchBase + iota
	GroupFPU
)

var groupNames = map[uint]string{
	GroupMIPS64: "mips64",
	GroupFPU:    "fpu",
}

// Decoder implements arch.Decoder for MIPS.
type Decoder struct{}

var _ arch.Decoder = Decoder{}

// New returns the MIPS decoder.
func New() Decoder { return Decoder{} }

func (Decoder) Arch() disasm.Arch            { return disasm.ArchMIPS }
func (Decoder) DefaultSyntax() disasm.Syntax { return disasm.SyntaxDefault }
func (Decoder) MaxInsnSize() int             { return 4 }

func (Decoder) ValidateMode(m disasm.Mode) error {
	if m&disasm.ModeMicro != 0 {
		return fmt.Errorf("mips: microMIPS is not supported: %w", disasm.ErrMode)
	}
	if illegal := m &^ (disasm.Mode32 | disasm.Mode64 | disasm.ModeN64 | disasm.ModeBigEndian); illegal != 0 {
		return fmt.Errorf("mips: mode bits %#x: %w", uint32(illegal), disasm.ErrMode)
	}
	if m&disasm.Mode32 != 0 && m&(disasm.Mode64|disasm.ModeN64) != 0 {
		return fmt.Errorf("mips: both 32 and 64 bit: %w", disasm.ErrMode)
	}
	return nil
}

func (Decoder) ValidateSyntax(s disasm.Syntax) error {
	switch s {
	case disasm.SyntaxDefault, disasm.SyntaxNoRegName:
		return nil
	}
	return fmt.Errorf("mips: syntax %s: %w", s, disasm.ErrOption)
}

func (Decoder) RegName(id uint) (string, bool) { return regName(id) }

func (Decoder) InsnName(id uint) (string, bool) {
	if id == 0 || id >= uint(opMax) || opNames[id] == "" {
		return "", false
	}
	return opNames[id], true
}

func (Decoder) GroupName(id uint) (string, bool) { return arch.GroupName(id, groupNames) }

// argKind is how an operand renders.
type argKind uint8

const (
	aReg    argKind = iota
	aImm            // signed immediate
	aUImm           // unsigned immediate, always hex above 9
	aTarget         // absolute branch target
	aMem            // disp(base)
	aSel            // coprocessor register or selector, printed as $n
	aRaw            // bare decimal number
)

type arg struct {
	kind   argKind
	reg    uint
	imm    int64
	access uint8
}

func sext16(x uint32) int64 { return int64(int16(x & 0xFFFF)) }

func (Decoder) Decode(code []byte, addr uint64, mode disasm.Mode, syntax disasm.Syntax) (arch.Decoded, error) {
	if len(code) < 4 {
		return arch.Decoded{}, arch.ErrShort
	}
	x := arch.ByteOrder(mode).Uint32(code)
	is64 := mode&(disasm.Mode64|disasm.ModeN64) != 0
	f := lookup(x, is64)
	if f == nil {
		return arch.Decoded{}, arch.ErrInvalid
	}
	args, ok := decodeArgs(f, x, addr, is64)
	if !ok {
		return arch.Decoded{}, arch.ErrInvalid
	}

	numeric := syntax == disasm.SyntaxNoRegName
	var text []string
	ops := &disasm.MIPSOperands{Operands: make([]disasm.MIPSOperand, 0, len(args))}
	for _, a := range args {
		text = append(text, a.render(numeric))
		ops.Operands = append(ops.Operands, a.operand())
	}

	var extra arch.Effects
	if f.flags&flag64 != 0 {
		extra.Groups = append(extra.Groups, GroupMIPS64)
	}
	if f.flags&flagFP != 0 {
		extra.Groups = append(extra.Groups, GroupFPU)
	}
	// jalr rs hides rd == $ra from the operand list.
	if f.op == JALR && (x>>11)&31 == 31 {
		extra.Write = append(extra.Write, RegRA)
	}
	eff := effects[f.op].Merge(extra)

	return arch.Decoded{
		ID:       uint(f.op),
		Size:     4,
		Mnemonic: f.op.String(),
		OpStr:    strings.Join(text, ", "),
		Effects:  eff,
		Operands: ops,
	}, nil
}

func (a arg) render(numeric bool) string {
	switch a.kind {
	case aReg:
		return regText(a.reg, numeric)
	case aImm:
		return arch.Imm(a.imm)
	case aUImm:
		if a.imm <= 9 {
			return fmt.Sprintf("%d", a.imm)
		}
		return fmt.Sprintf("%#x", a.imm)
	case aTarget:
		return arch.Addr(uint64(a.imm))
	case aMem:
		return fmt.Sprintf("%s(%s)", arch.Imm(a.imm), regText(a.reg, numeric))
	case aSel:
		return fmt.Sprintf("$%d", a.imm)
	}
	return fmt.Sprintf("%d", a.imm)
}

func (a arg) operand() disasm.MIPSOperand {
	switch a.kind {
	case aReg:
		return disasm.MIPSOperand{Type: disasm.OpReg, Reg: a.reg, Access: a.access}
	case aMem:
		return disasm.MIPSOperand{Type: disasm.OpMem, Mem: disasm.MIPSMem{Base: a.reg, Disp: a.imm}, Access: a.access}
	}
	return disasm.MIPSOperand{Type: disasm.OpImm, Imm: a.imm}
}

func dst(reg uint) arg { return arg{kind: aReg, reg: reg, access: disasm.AccessWrite} }
func src(reg uint) arg { return arg{kind: aReg, reg: reg, access: disasm.AccessRead} }
func imm(v int64) arg  { return arg{kind: aImm, imm: v} }

// decodeArgs extracts operands for f's form. ok is false for reserved
// field combinations.
func decodeArgs(f *instFormat, x uint32, addr uint64, is64 bool) ([]arg, bool) {
	rs := (x >> 21) & 31
	rt := (x >> 16) & 31
	rd := (x >> 11) & 31
	sa := (x >> 6) & 31
	fs, ft, fd := rd, rt, sa

	target := func(off int64) arg {
		t := addr + 4 + uint64(off<<2)
		if !is64 {
			t &= 0xFFFFFFFF
		}
		return arg{kind: aTarget, imm: int64(t)}
	}
	mem := func(access uint8) arg {
		return arg{kind: aMem, reg: gpr(rs), imm: sext16(x), access: access}
	}
	load := f.op != SB && f.op != SH && f.op != SW && f.op != SWL && f.op != SWR &&
		f.op != SD && f.op != SDL && f.op != SDR && f.op != SC && f.op != SCD &&
		f.op != SWC1 && f.op != SDC1

	switch f.form {
	case fNone:
		return nil, true
	case fRdRsRt:
		return []arg{dst(gpr(rd)), src(gpr(rs)), src(gpr(rt))}, true
	case fRdRtRs:
		return []arg{dst(gpr(rd)), src(gpr(rt)), src(gpr(rs))}, true
	case fRdRtSa:
		return []arg{dst(gpr(rd)), src(gpr(rt)), imm(int64(sa))}, true
	case fRdRs:
		return []arg{dst(gpr(rd)), src(gpr(rs))}, true
	case fRdRt:
		return []arg{dst(gpr(rd)), src(gpr(rt))}, true
	case fJalr:
		if rd == 31 {
			return []arg{src(gpr(rs))}, true
		}
		return []arg{dst(gpr(rd)), src(gpr(rs))}, true
	case fRs:
		return []arg{src(gpr(rs))}, true
	case fRd:
		return []arg{dst(gpr(rd))}, true
	case fRsRt, fTrap:
		return []arg{src(gpr(rs)), src(gpr(rt))}, true
	case fRtRsImm:
		return []arg{dst(gpr(rt)), src(gpr(rs)), imm(sext16(x))}, true
	case fRtRsUImm:
		return []arg{dst(gpr(rt)), src(gpr(rs)), {kind: aUImm, imm: int64(x & 0xFFFF)}}, true
	case fRtUImm:
		return []arg{dst(gpr(rt)), {kind: aUImm, imm: int64(x & 0xFFFF)}}, true
	case fRsRtOff:
		return []arg{src(gpr(rs)), src(gpr(rt)), target(sext16(x))}, true
	case fRsOff:
		return []arg{src(gpr(rs)), target(sext16(x))}, true
	case fOff:
		return []arg{target(sext16(x))}, true
	case fRsImm:
		return []arg{src(gpr(rs)), imm(sext16(x))}, true
	case fJump:
		t := (addr+4)&^0x0FFFFFFF | uint64(x&0x03FFFFFF)<<2
		if !is64 {
			t &= 0xFFFFFFFF
		}
		return []arg{{kind: aTarget, imm: int64(t)}}, true
	case fMem:
		if load {
			return []arg{dst(gpr(rt)), mem(disasm.AccessRead)}, true
		}
		return []arg{src(gpr(rt)), mem(disasm.AccessWrite)}, true
	case fFtMem:
		if load {
			return []arg{dst(fpr(ft)), mem(disasm.AccessRead)}, true
		}
		return []arg{src(fpr(ft)), mem(disasm.AccessWrite)}, true
	case fHintMem:
		return []arg{{kind: aUImm, imm: int64(rt)}, mem(disasm.AccessRead)}, true
	case fBaseMem:
		return []arg{mem(disasm.AccessRead)}, true
	case fSyscall:
		if code := (x >> 6) & 0xFFFFF; code != 0 {
			return []arg{{kind: aRaw, imm: int64(code)}}, true
		}
		return nil, true
	case fBreak:
		hi, lo := (x>>16)&0x3FF, (x>>6)&0x3FF
		switch {
		case hi == 0 && lo == 0:
			return nil, true
		case lo == 0:
			return []arg{{kind: aRaw, imm: int64(hi)}}, true
		}
		return []arg{{kind: aRaw, imm: int64(hi)}, {kind: aRaw, imm: int64(lo)}}, true
	case fWait:
		if code := (x >> 6) & 0x7FFFF; code != 0 {
			return []arg{{kind: aRaw, imm: int64(code)}}, true
		}
		return nil, true
	case fSync:
		if sa != 0 {
			return []arg{{kind: aRaw, imm: int64(sa)}}, true
		}
		return nil, true
	case fRtFs:
		switch f.op {
		case MTC1, DMTC1, MTHC1:
			return []arg{src(gpr(rt)), dst(fpr(fs))}, true
		}
		return []arg{dst(gpr(rt)), src(fpr(fs))}, true
	case fRtFcr:
		if f.op == CTC1 {
			return []arg{src(gpr(rt)), {kind: aSel, imm: int64(fs)}}, true
		}
		return []arg{dst(gpr(rt)), {kind: aSel, imm: int64(fs)}}, true
	case fRtCop0:
		sel := arg{kind: aRaw, imm: int64(x & 7)}
		if f.op == MTC0 || f.op == DMTC0 {
			return []arg{src(gpr(rt)), {kind: aSel, imm: int64(rd)}, sel}, true
		}
		return []arg{dst(gpr(rt)), {kind: aSel, imm: int64(rd)}, sel}, true
	case fRtOpt:
		if rt != 0 {
			return []arg{dst(gpr(rt))}, true
		}
		return nil, true
	case fFdFsFt:
		return []arg{dst(fpr(fd)), src(fpr(fs)), src(fpr(ft))}, true
	case fFdFs:
		return []arg{dst(fpr(fd)), src(fpr(fs))}, true
	case fFdFsRt:
		return []arg{dst(fpr(fd)), src(fpr(fs)), src(gpr(rt))}, true
	case fFdFsCc:
		return []arg{dst(fpr(fd)), src(fpr(fs)), src(fcc(rt >> 2))}, true
	case fRdRsCc:
		return []arg{dst(gpr(rd)), src(gpr(rs)), src(fcc(rt >> 2))}, true
	case fCcFsFt:
		return []arg{dst(fcc(sa >> 2)), src(fpr(fs)), src(fpr(ft))}, true
	case fCcOff:
		return []arg{src(fcc(rt >> 2)), target(sext16(x))}, true
	case fExt:
		pos := int64(sa) + int64(f.posAdd)
		size := int64(rd) + 1 + int64(f.sizeAdd)
		return []arg{dst(gpr(rt)), src(gpr(rs)), imm(pos), imm(size)}, true
	case fIns:
		lsb := int64(sa) + int64(f.posAdd)
		msb := int64(rd) + int64(f.sizeAdd)
		if msb < lsb {
			return nil, false
		}
		return []arg{dst(gpr(rt)), src(gpr(rs)), imm(lsb), imm(msb - lsb + 1)}, true
	case fRtRdHw:
		return []arg{dst(gpr(rt)), {kind: aSel, imm: int64(rd)}}, true
	}
	return nil, false
}

package arm

import (
	"fmt"
	"strings"

	"golang.org/x/arch/arm/armasm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// shape says which operands an instruction writes.
type shape uint8

const (
	shapeDest       shape = iota // first register written, the rest read
	shapeDest2                   // first two registers written (long multiply)
	shapeAcc2                    // first two registers read and written
	shapeNoDest                  // everything read
	shapeLoad                    // registers before the memory operand written
	shapeStore                   // registers read, memory written
	shapeStoreExcl               // status register written, memory written
	shapeLoadMulti               // register list written
	shapeStoreMulti              // register list read
)

// insn is one decoded A32 or Thumb instruction, kept in armasm's argument
// vocabulary so that both instruction sets share rendering.
type insn struct {
	id       uint
	size     int
	mnemonic string
	args     []armasm.Arg
	cond     uint
	setFlags bool
	shape    shape
	eff      arch.Effects
	bx       bool // register branch; "bx lr" is a return
}

// target is an absolute branch destination.
type target uint64

func (target) IsArg()           {}
func (t target) String() string { return "#" + arch.Addr(uint64(t)) }

func shiftName(s armasm.Shift) string { return strings.ToLower(s.String()) }

func argText(a armasm.Arg, numeric bool) string {
	switch a := a.(type) {
	case armasm.Reg:
		return regText(a, numeric)
	case armasm.RegX:
		return fmt.Sprintf("%s[%d]", regText(a.Reg, numeric), a.Index)
	case armasm.RegList:
		var b strings.Builder
		b.WriteByte('{')
		for i := range 16 {
			if a&(1<<i) == 0 {
				continue
			}
			if b.Len() > 1 {
				b.WriteString(", ")
			}
			b.WriteString(regText(armasm.Reg(i), numeric))
		}
		b.WriteByte('}')
		return b.String()
	case armasm.RegShift:
		r := regText(a.Reg, numeric)
		switch {
		case a.Shift == armasm.RotateRightExt:
			return r + ", rrx"
		case a.Shift == armasm.ShiftLeft && a.Count == 0:
			return r
		}
		return fmt.Sprintf("%s, %s #%d", r, shiftName(a.Shift), a.Count)
	case armasm.RegShiftReg:
		return fmt.Sprintf("%s, %s %s", regText(a.Reg, numeric), shiftName(a.Shift), regText(a.RegCount, numeric))
	case armasm.Imm:
		return "#" + arch.Imm(int64(a))
	case armasm.ImmAlt:
		return "#" + arch.Imm(int64(a.Imm()))
	case armasm.Mem:
		return memText(a, numeric)
	case target:
		return a.String()
	case armasm.Float32Imm:
		return fmt.Sprintf("#%v", float32(a))
	case armasm.Float64Imm:
		return fmt.Sprintf("#%v", float64(a))
	case armasm.Label:
		return arch.Addr(uint64(a))
	case armasm.Endian:
		return strings.ToLower(a.String())
	}
	return strings.ToLower(a.String())
}

func memText(m armasm.Mem, numeric bool) string {
	base := regText(m.Base, numeric)
	var x string
	switch {
	case m.Sign != 0:
		if m.Sign < 0 {
			x = "-"
		}
		x += regText(m.Index, numeric)
		switch {
		case m.Shift == armasm.RotateRightExt:
			x += ", rrx"
		case m.Shift != armasm.ShiftLeft || m.Count != 0:
			x += fmt.Sprintf(", %s #%d", shiftName(m.Shift), m.Count)
		}
	case m.Offset != 0:
		x = "#" + arch.Imm(int64(m.Offset))
	}

	switch m.Mode {
	case armasm.AddrLDM:
		return base
	case armasm.AddrLDM_WB:
		return base + "!"
	case armasm.AddrPreIndex:
		if x == "" {
			x = "#0"
		}
		return fmt.Sprintf("[%s, %s]!", base, x)
	case armasm.AddrPostIndex:
		if x == "" {
			x = "#0"
		}
		return fmt.Sprintf("[%s], %s", base, x)
	}
	if x == "" {
		return "[" + base + "]"
	}
	return fmt.Sprintf("[%s, %s]", base, x)
}

func (in *insn) text(numeric bool) string {
	parts := make([]string, 0, len(in.args))
	for _, a := range in.args {
		parts = append(parts, argText(a, numeric))
	}
	return strings.Join(parts, ", ")
}

func (in *insn) operands() *disasm.ARMOperands {
	out := &disasm.ARMOperands{
		CC:          in.cond,
		UpdateFlags: in.setFlags,
		Operands:    make([]disasm.ARMOperand, 0, len(in.args)),
	}
	regs, seenMem := 0, false
	access := func() uint8 {
		defer func() { regs++ }()
		switch in.shape {
		case shapeDest:
			if regs == 0 {
				return disasm.AccessWrite
			}
		case shapeDest2:
			if regs < 2 {
				return disasm.AccessWrite
			}
		case shapeAcc2:
			if regs < 2 {
				return disasm.AccessRead | disasm.AccessWrite
			}
		case shapeStoreExcl:
			if regs == 0 {
				return disasm.AccessWrite
			}
		case shapeLoad:
			if !seenMem {
				return disasm.AccessWrite
			}
		}
		return disasm.AccessRead
	}
	add := func(op disasm.ARMOperand) { out.Operands = append(out.Operands, op) }

	for _, a := range in.args {
		switch a := a.(type) {
		case armasm.Reg:
			add(disasm.ARMOperand{Type: disasm.OpReg, Reg: libReg(a), Access: access()})
		case armasm.RegX:
			add(disasm.ARMOperand{Type: disasm.OpReg, Reg: libReg(a.Reg), VectorIndex: a.Index, Access: access()})
		case armasm.RegShift:
			op := disasm.ARMOperand{Type: disasm.OpReg, Reg: libReg(a.Reg), Access: access()}
			if a.Shift != armasm.ShiftLeft || a.Count != 0 {
				op.Shift = disasm.Shift{Type: shiftName(a.Shift), Value: uint(a.Count)}
			}
			add(op)
		case armasm.RegShiftReg:
			add(disasm.ARMOperand{
				Type:   disasm.OpReg,
				Reg:    libReg(a.Reg),
				Shift:  disasm.Shift{Type: shiftName(a.Shift), Reg: libReg(a.RegCount)},
				Access: access(),
			})
		case armasm.RegList:
			acc := disasm.AccessRead
			if in.shape == shapeLoadMulti {
				acc = disasm.AccessWrite
			}
			for i := range 16 {
				if a&(1<<i) != 0 {
					add(disasm.ARMOperand{Type: disasm.OpReg, Reg: libReg(armasm.Reg(i)), Access: acc})
				}
			}
		case armasm.Mem:
			seenMem = true
			switch a.Mode {
			case armasm.AddrLDM, armasm.AddrLDM_WB:
				acc := disasm.AccessRead
				if a.Mode == armasm.AddrLDM_WB {
					out.Writeback = true
					acc |= disasm.AccessWrite
				}
				add(disasm.ARMOperand{Type: disasm.OpReg, Reg: libReg(a.Base), Access: acc})
				continue
			case armasm.AddrPreIndex, armasm.AddrPostIndex:
				out.Writeback = true
			}
			mem := disasm.ARMMem{Base: libReg(a.Base), Disp: int(a.Offset)}
			op := disasm.ARMOperand{Type: disasm.OpMem, Access: disasm.AccessRead}
			if a.Sign != 0 {
				mem.Index = libReg(a.Index)
				mem.Scale = 1
				if a.Sign < 0 {
					mem.Scale = -1
					op.Subtracted = true
				}
				if a.Shift != armasm.ShiftLeft || a.Count != 0 {
					mem.Shift = disasm.Shift{Type: shiftName(a.Shift), Value: uint(a.Count)}
				}
			}
			switch in.shape {
			case shapeStore, shapeStoreExcl, shapeStoreMulti:
				op.Access = disasm.AccessWrite
			}
			op.Mem = mem
			add(op)
		case armasm.Imm:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a)})
		case armasm.ImmAlt:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a.Imm())})
		case target:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a)})
		case armasm.Float32Imm:
			add(disasm.ARMOperand{Type: disasm.OpFP, FP: float64(a)})
		case armasm.Float64Imm:
			add(disasm.ARMOperand{Type: disasm.OpFP, FP: float64(a)})
		case armasm.Label:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a)})
		case armasm.Endian:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a)})
		case itCond:
			add(disasm.ARMOperand{Type: disasm.OpCond, Imm: int64(a)})
		case iflags:
			add(disasm.ARMOperand{Type: disasm.OpImm, Imm: int64(a)})
		}
	}
	return out
}

// pcFlow reports whether the instruction transfers control by writing pc,
// and whether that transfer is a return.
func (in *insn) pcFlow() (jump, ret bool) {
	if in.bx {
		if r, ok := in.firstReg(); ok && r == armasm.LR {
			return false, true
		}
		return false, false
	}
	switch in.shape {
	case shapeLoadMulti:
		var base armasm.Reg = armasm.SP
		for _, a := range in.args {
			switch a := a.(type) {
			case armasm.Mem:
				base = a.Base
			case armasm.Reg:
				base = a
			case armasm.RegList:
				if a&(1<<armasm.PC) != 0 {
					return true, base == armasm.SP
				}
			}
		}
	case shapeDest, shapeLoad:
		r, ok := in.firstReg()
		if !ok || r != armasm.PC {
			return false, false
		}
		if len(in.args) == 2 {
			if src, ok := asReg(in.args[1]); ok && src == armasm.LR {
				return true, true
			}
		}
		return true, false
	}
	return false, false
}

func (in *insn) firstReg() (armasm.Reg, bool) {
	if len(in.args) == 0 {
		return 0, false
	}
	return asReg(in.args[0])
}

func asReg(a armasm.Arg) (armasm.Reg, bool) {
	switch a := a.(type) {
	case armasm.Reg:
		return a, true
	case armasm.RegShift:
		return a.Reg, true
	}
	return 0, false
}

// effects merges the static table entry with what the condition, flag
// setting and pc writes imply.
func (in *insn) effects() arch.Effects {
	var extra arch.Effects
	if in.cond != disasm.ARMCondAL && in.cond != disasm.ARMCondInvalid {
		extra.Read = append(extra.Read, RegCPSR)
	}
	if in.setFlags {
		extra.Write = append(extra.Write, RegCPSR)
	}
	jump, ret := in.pcFlow()
	if jump {
		extra.Groups = append(extra.Groups, disasm.GroupJump)
	}
	if ret {
		extra.Groups = append(extra.Groups, disasm.GroupRet)
	}
	for _, a := range in.args {
		if _, ok := a.(target); ok && in.bx {
			extra.Groups = append(extra.Groups, disasm.GroupBranchRelative)
		}
	}
	return in.eff.Merge(extra)
}

func (in *insn) decoded(numeric bool) arch.Decoded {
	return arch.Decoded{
		ID:       in.id,
		Size:     in.size,
		Mnemonic: in.mnemonic,
		OpStr:    in.text(numeric),
		Effects:  in.effects(),
		Operands: in.operands(),
	}
}

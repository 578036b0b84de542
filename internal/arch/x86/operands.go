package x86

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"dissect/internal/disasm"
)

// Destination handling by opcode. Anything not listed reads and writes
// its first operand.
var (
	readOnly = map[x86asm.Op]bool{
		x86asm.CMP: true, x86asm.TEST: true, x86asm.PUSH: true, x86asm.BT: true,
		x86asm.COMISS: true, x86asm.UCOMISS: true, x86asm.COMISD: true, x86asm.UCOMISD: true,
		x86asm.FCOMI: true, x86asm.FUCOMI: true, x86asm.FCOMIP: true, x86asm.FUCOMIP: true,
		x86asm.OUT: true, x86asm.NOP: true, x86asm.INT: true, x86asm.INVLPG: true,
		x86asm.CMPSB: true, x86asm.CMPSW: true, x86asm.CMPSD: true, x86asm.CMPSQ: true,
		x86asm.SCASB: true, x86asm.SCASW: true, x86asm.SCASD: true, x86asm.SCASQ: true,
		x86asm.LGDT: true, x86asm.LIDT: true, x86asm.LLDT: true, x86asm.LTR: true,
		x86asm.RET: true, x86asm.LRET: true, x86asm.ENTER: true,
	}
	writeOnly = map[x86asm.Op]bool{
		x86asm.LEA: true, x86asm.POP: true, x86asm.BSF: true, x86asm.BSR: true,
		x86asm.LZCNT: true, x86asm.TZCNT: true, x86asm.POPCNT: true, x86asm.IN: true,
		x86asm.LDS: true, x86asm.LES: true, x86asm.LFS: true, x86asm.LGS: true, x86asm.LSS: true,
		x86asm.LODSB: true, x86asm.LODSW: true, x86asm.LODSD: true, x86asm.LODSQ: true,
		x86asm.RDRAND: true,
	}
	exchange = map[x86asm.Op]bool{x86asm.XCHG: true, x86asm.XADD: true, x86asm.CMPXCHG: true}
)

// writeOnlyPrefixes catch the move, convert and set families.
var writeOnlyPrefixes = []string{"MOV", "VMOV", "CVT", "VCVT", "SET"}

type destKind uint8

const (
	destRW destKind = iota
	destW
	destNone
	destSwap
)

func destOf(inst *x86asm.Inst) destKind {
	switch {
	case exchange[inst.Op]:
		return destSwap
	case readOnly[inst.Op], isBranch(opEffects[inst.Op]):
		return destNone
	case writeOnly[inst.Op]:
		return destW
	case inst.Op == x86asm.IMUL && inst.Args[2] != nil:
		return destW
	}
	name := inst.Op.String()
	for _, p := range writeOnlyPrefixes {
		if strings.HasPrefix(name, p) {
			return destW
		}
	}
	if isString(inst.Op) {
		return destW
	}
	return destRW
}

// operands converts the x86asm arguments. Branch displacements become
// absolute targets.
func operands(inst *x86asm.Inst, addr uint64) *disasm.X86Operands {
	out := &disasm.X86Operands{
		Opcode:   opcodeBytes(inst.Opcode),
		AddrSize: uint8(inst.AddrSize / 8),
		OpSize:   uint8(inst.DataSize / 8),
	}
	for _, p := range inst.Prefix {
		if p == 0 {
			break
		}
		out.Prefix = append(out.Prefix, byte(p))
	}

	dest := destOf(inst)
	access := func(i int) uint8 {
		switch {
		case dest == destSwap && i < 2:
			return disasm.AccessRead | disasm.AccessWrite
		case i != 0 || dest == destNone:
			return disasm.AccessRead
		case dest == destW:
			return disasm.AccessWrite
		}
		return disasm.AccessRead | disasm.AccessWrite
	}

	for i, a := range inst.Args {
		if a == nil {
			break
		}
		switch a := a.(type) {
		case x86asm.Reg:
			out.Operands = append(out.Operands, disasm.X86Operand{
				Type:   disasm.OpReg,
				Reg:    uint(a),
				Size:   regBytes(a),
				Access: access(i),
			})
		case x86asm.Mem:
			out.Disp = a.Disp
			op := disasm.X86Operand{
				Type: disasm.OpMem,
				Mem: disasm.X86Mem{
					Segment: uint(a.Segment),
					Base:    uint(a.Base),
					Scale:   1,
					Disp:    a.Disp,
				},
				Size:   uint8(inst.MemBytes),
				Access: access(i),
			}
			if a.Scale != 0 {
				op.Mem.Index = uint(a.Index)
				op.Mem.Scale = int(a.Scale)
			}
			if inst.Op == x86asm.LEA {
				op.Access = 0
			}
			out.Operands = append(out.Operands, op)
		case x86asm.Imm:
			out.Operands = append(out.Operands, disasm.X86Operand{
				Type: disasm.OpImm,
				Imm:  int64(a),
				Size: uint8(inst.DataSize / 8),
			})
		case x86asm.Rel:
			out.Operands = append(out.Operands, disasm.X86Operand{
				Type: disasm.OpImm,
				Imm:  int64(addr + uint64(inst.Len) + uint64(int64(a))),
				Size: uint8(inst.Mode / 8),
			})
		}
	}
	return out
}

// opcodeBytes trims x86asm's left-aligned opcode word to the escape
// sequence and primary opcode byte.
func opcodeBytes(opcode uint32) []byte {
	b := []byte{byte(opcode >> 24)}
	if b[0] != 0x0F {
		return b
	}
	b = append(b, byte(opcode>>16))
	if b[1] == 0x38 || b[1] == 0x3A {
		b = append(b, byte(opcode>>8))
	}
	return b
}

package ppc

import (
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"dissect/internal/disasm"
)

// Shape of an opcode's explicit arguments.
type shape uint8

const (
	shapeDest   shape = iota // first argument written, the rest read
	shapeNoDest              // every argument read
	shapeMoveTo              // mtspr: the SPR is written
)

func shapeOf(op ppc64asm.Op) shape {
	name := op.String()
	switch {
	case op == ppc64asm.MTSPR:
		return shapeMoveTo
	case op == ppc64asm.MTCRF, op == ppc64asm.MTOCRF, op == ppc64asm.MTMSR, op == ppc64asm.MTMSRD:
		return shapeNoDest
	case isBranch(op), isStore(name), strings.HasPrefix(name, "mtfs"),
		strings.HasPrefix(name, "tw"), strings.HasPrefix(name, "td"),
		strings.HasPrefix(name, "dcb"), strings.HasPrefix(name, "icb"):
		return shapeNoDest
	}
	return shapeDest
}

func isStore(name string) bool {
	return strings.HasPrefix(name, "st") && name != "stop"
}

func isLoad(name string) bool {
	return strings.HasPrefix(name, "l") && !strings.HasPrefix(name, "li")
}

// isUpdate reports the load and store forms that write the effective
// address back to the base register.
func isUpdate(name string) bool {
	if !isLoad(name) && !isStore(name) {
		return false
	}
	return strings.HasSuffix(name, "u") || strings.HasSuffix(name, "ux")
}

// isIndexed reports X-form loads and stores, where RA=0 reads as zero.
func isIndexed(name string) bool {
	return (isLoad(name) || isStore(name)) && strings.HasSuffix(strings.TrimSuffix(name, "."), "x")
}

type builder struct {
	out   *disasm.PPCOperands
	shape shape
}

func (b *builder) access(i int) uint8 {
	switch {
	case b.shape == shapeNoDest:
		return disasm.AccessRead
	case i == 0:
		return disasm.AccessWrite
	}
	return disasm.AccessRead
}

func (b *builder) add(op disasm.PPCOperand) {
	b.out.Operands = append(b.out.Operands, op)
}

// operands converts the ppc64asm arguments. BO and BH move into the
// branch fields and an offset merges with the base register after it.
func operands(inst *ppc64asm.Inst, addr uint64) *disasm.PPCOperands {
	name := inst.Op.String()
	b := &builder{
		out:   &disasm.PPCOperands{UpdateCR0: strings.HasSuffix(name, ".") && !strings.HasPrefix(name, "f")},
		shape: shapeOf(inst.Op),
	}
	prefixed := strings.HasPrefix(name, "pl") || strings.HasPrefix(name, "pst")

	bo, _, cond := condition(inst)
	for i := 0; i < len(inst.Args); i++ {
		a := inst.Args[i]
		if a == nil {
			break
		}
		switch {
		case cond && i == 0:
			b.out.BC = bo
			continue
		case cond && i == 1:
			if bo&0x10 == 0 {
				b.crBit(a.(ppc64asm.CondReg), disasm.AccessRead)
			}
			continue
		case cond && i == 2:
			if bh, ok := a.(ppc64asm.Imm); ok {
				b.out.BH = int(bh)
				continue
			}
		case prefixed && i == 3:
			continue
		}

		switch a := a.(type) {
		case ppc64asm.Reg:
			op := disasm.PPCOperand{Type: disasm.OpReg, Reg: uint(a), Access: b.access(i)}
			if i == 1 && isIndexed(name) {
				if a == ppc64asm.R0 {
					b.add(disasm.PPCOperand{Type: disasm.OpImm})
					continue
				}
				if isUpdate(name) {
					op.Access = disasm.AccessRead | disasm.AccessWrite
				}
			}
			b.add(op)
		case ppc64asm.CondReg:
			if a >= ppc64asm.CR0 {
				b.add(disasm.PPCOperand{Type: disasm.OpReg, Reg: condReg(a), Access: b.access(i)})
			} else {
				b.crBit(a, b.access(i))
			}
		case ppc64asm.SpReg:
			access := disasm.AccessRead
			if b.shape == shapeMoveTo || (b.shape == shapeDest && i == 0) {
				access = disasm.AccessWrite
			}
			b.add(disasm.PPCOperand{Type: disasm.OpReg, Reg: sprReg(a), Access: access})
		case ppc64asm.Offset:
			mem := disasm.PPCMem{Disp: int(a)}
			if i+1 < len(inst.Args) {
				if r, ok := inst.Args[i+1].(ppc64asm.Reg); ok {
					if r != ppc64asm.R0 {
						mem.Base = uint(r)
					}
					i++
				}
			}
			access := disasm.AccessRead
			if isStore(name) {
				access = disasm.AccessWrite
			}
			b.add(disasm.PPCOperand{Type: disasm.OpMem, Mem: mem, Access: access})
		case ppc64asm.Imm:
			b.add(disasm.PPCOperand{Type: disasm.OpImm, Imm: int64(a)})
		case ppc64asm.PCRel:
			b.add(disasm.PPCOperand{Type: disasm.OpImm, Imm: int64(addr + uint64(int64(a)))})
		case ppc64asm.Label:
			b.add(disasm.PPCOperand{Type: disasm.OpImm, Imm: int64(a)})
		}
	}
	return b.out
}

// crBit adds a condition register bit as a CRX operand.
func (b *builder) crBit(c ppc64asm.CondReg, access uint8) {
	bit := uint(c - ppc64asm.Cond0LT)
	b.add(disasm.PPCOperand{
		Type:   disasm.OpCRX,
		CRX:    disasm.PPCCRX{Scale: 4, Reg: RegCR0 + bit/4, Cond: bit % 4},
		Access: access,
	})
}

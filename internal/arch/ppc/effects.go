package ppc

import (
	"strings"

	"golang.org/x/arch/ppc64/ppc64asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// Power-specific groups.
const (
	GroupFPU = disasm.GroupArchBase + iota
	GroupAltivec
	GroupVSX
	GroupMMA
)

var groupNames = map[uint]string{
	GroupFPU:     "fpu",
	GroupAltivec: "altivec",
	GroupVSX:     "vsx",
	GroupMMA:     "mma",
}

var (
	xer      = arch.Regs(RegXER)
	carryOut = arch.Effects{Write: xer}
	carryIn  = arch.Effects{Read: xer, Write: xer}
	trap     = arch.Effects{Groups: arch.Groups(disasm.GroupInt)}
	priv     = arch.Effects{Groups: arch.Groups(disasm.GroupPrivilege)}
	rfi      = arch.Effects{Read: arch.Regs(RegMSR), Write: arch.Regs(RegMSR), Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)}
)

var opEffects = map[ppc64asm.Op]arch.Effects{
	ppc64asm.SC:    trap,
	ppc64asm.SCV:   trap,
	ppc64asm.TW:    trap,
	ppc64asm.TWI:   trap,
	ppc64asm.TD:    trap,
	ppc64asm.TDI:   trap,
	ppc64asm.RFID:  rfi,
	ppc64asm.HRFID: rfi,
	ppc64asm.RFSCV: rfi,
	ppc64asm.RFEBB: {Groups: arch.Groups(disasm.GroupIRet)},

	ppc64asm.MTMSR:  {Write: arch.Regs(RegMSR), Groups: arch.Groups(disasm.GroupPrivilege)},
	ppc64asm.MTMSRD: {Write: arch.Regs(RegMSR), Groups: arch.Groups(disasm.GroupPrivilege)},
	ppc64asm.MFMSR:  {Read: arch.Regs(RegMSR), Groups: arch.Groups(disasm.GroupPrivilege)},
	ppc64asm.SLBIA:  priv,
	ppc64asm.TLBIE:  priv,
	ppc64asm.STOP:   priv,

	ppc64asm.MFCR:   {Read: arch.Regs(RegCR)},
	ppc64asm.MFOCRF: {Read: arch.Regs(RegCR)},
	ppc64asm.MTCRF:  {Write: arch.Regs(RegCR)},
	ppc64asm.MTOCRF: {Write: arch.Regs(RegCR)},

	ppc64asm.ADDC: carryOut, ppc64asm.ADDCCC: carryOut, ppc64asm.ADDIC: carryOut, ppc64asm.ADDICCC: carryOut,
	ppc64asm.SUBFC: carryOut, ppc64asm.SUBFCCC: carryOut, ppc64asm.SUBFIC: carryOut,
	ppc64asm.SRAW: carryOut, ppc64asm.SRAWCC: carryOut, ppc64asm.SRAWI: carryOut, ppc64asm.SRAWICC: carryOut,
	ppc64asm.SRAD: carryOut, ppc64asm.SRADCC: carryOut, ppc64asm.SRADI: carryOut, ppc64asm.SRADICC: carryOut,
	ppc64asm.ADDE: carryIn, ppc64asm.ADDECC: carryIn, ppc64asm.SUBFE: carryIn, ppc64asm.SUBFECC: carryIn,
	ppc64asm.ADDZE: carryIn, ppc64asm.ADDZECC: carryIn, ppc64asm.ADDME: carryIn, ppc64asm.ADDMECC: carryIn,
	ppc64asm.SUBFZE: carryIn, ppc64asm.SUBFZECC: carryIn, ppc64asm.SUBFME: carryIn, ppc64asm.SUBFMECC: carryIn,
}

// Arithmetic families whose "o" forms record overflow in XER.
var overflowFamilies = []string{"add", "subf", "mull", "div", "neg"}

// effects returns the implicit registers and groups of inst.
func effects(inst *ppc64asm.Inst) arch.Effects {
	e := opEffects[inst.Op]
	if b, ok := branchEffects(inst); ok {
		e = e.Merge(b)
	}

	name := inst.Op.String()
	if base, ok := strings.CutSuffix(name, "."); ok {
		if strings.HasPrefix(name, "f") {
			e = e.Merge(arch.Effects{Write: arch.Regs(RegCR0 + 1)})
		} else {
			e = e.Merge(arch.Effects{Write: arch.Regs(RegCR0)})
		}
		name = base
	}
	if strings.HasSuffix(name, "o") {
		for _, f := range overflowFamilies {
			if strings.HasPrefix(name, f) {
				e = e.Merge(arch.Effects{Write: xer})
				break
			}
		}
	}

	var extra arch.Effects
	for i, a := range inst.Args {
		if a == nil {
			break
		}
		switch a := a.(type) {
		case ppc64asm.Reg:
			if g := regGroup(a); g != 0 {
				extra.Groups = append(extra.Groups, g)
			}
		case ppc64asm.Offset:
			// D-form updates write the effective address to RA.
			if i+1 < len(inst.Args) && isUpdate(inst.Op.String()) {
				if r, ok := inst.Args[i+1].(ppc64asm.Reg); ok {
					extra.Write = append(extra.Write, uint(r))
				}
			}
		}
	}
	return e.Merge(extra)
}

func regGroup(r ppc64asm.Reg) uint {
	switch {
	case r >= ppc64asm.F0 && r <= ppc64asm.F31:
		return GroupFPU
	case r >= ppc64asm.V0 && r <= ppc64asm.V31:
		return GroupAltivec
	case r >= ppc64asm.VS0 && r <= ppc64asm.VS63:
		return GroupVSX
	case r >= ppc64asm.A0 && r <= ppc64asm.A7:
		return GroupMMA
	}
	return 0
}

// branchEffects derives groups and registers of a branch from its opcode
// and BO field.
func branchEffects(inst *ppc64asm.Inst) (arch.Effects, bool) {
	var e arch.Effects
	link := false
	switch inst.Op {
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA:
		link = inst.Op == ppc64asm.BL || inst.Op == ppc64asm.BLA
		if inst.Op == ppc64asm.B || inst.Op == ppc64asm.BL {
			e.Groups = append(e.Groups, disasm.GroupBranchRelative)
		}
	case ppc64asm.BC, ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA:
		link = inst.Op == ppc64asm.BCL || inst.Op == ppc64asm.BCLA
		if inst.Op == ppc64asm.BC || inst.Op == ppc64asm.BCL {
			e.Groups = append(e.Groups, disasm.GroupBranchRelative)
		}
	case ppc64asm.BCLR, ppc64asm.BCLRL:
		link = inst.Op == ppc64asm.BCLRL
		e.Read = append(e.Read, RegLR)
		if !link {
			e.Groups = append(e.Groups, disasm.GroupRet)
		}
	case ppc64asm.BCCTR, ppc64asm.BCCTRL:
		link = inst.Op == ppc64asm.BCCTRL
		e.Read = append(e.Read, RegCTR)
	case ppc64asm.BCTAR, ppc64asm.BCTARL:
		link = inst.Op == ppc64asm.BCTARL
		e.Read = append(e.Read, RegTAR)
	default:
		return e, false
	}

	switch {
	case link:
		e.Write = append(e.Write, RegLR)
		e.Groups = append(e.Groups, disasm.GroupCall)
	case inst.Op != ppc64asm.BCLR:
		e.Groups = append(e.Groups, disasm.GroupJump)
	}

	if bo, bi, ok := condition(inst); ok {
		if bo&0x04 == 0 {
			e.Read = append(e.Read, RegCTR)
			e.Write = append(e.Write, RegCTR)
		}
		if bo&0x10 == 0 {
			e.Read = append(e.Read, crField(bi))
		}
	}
	return e, true
}

// condition returns the BO and BI fields of a conditional branch.
func condition(inst *ppc64asm.Inst) (int, ppc64asm.CondReg, bool) {
	if !isBranch(inst.Op) {
		return 0, 0, false
	}
	bo, ok := inst.Args[0].(ppc64asm.Imm)
	if !ok {
		return 0, 0, false
	}
	bi, ok := inst.Args[1].(ppc64asm.CondReg)
	if !ok {
		return 0, 0, false
	}
	return int(bo), bi, true
}

func isBranch(op ppc64asm.Op) bool {
	switch op {
	case ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA,
		ppc64asm.BC, ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA,
		ppc64asm.BCLR, ppc64asm.BCLRL, ppc64asm.BCCTR, ppc64asm.BCCTRL,
		ppc64asm.BCTAR, ppc64asm.BCTARL:
		return true
	}
	return false
}

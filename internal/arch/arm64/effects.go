package arm64

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

type shape uint8

const (
	shapeDest      shape = iota // first register written
	shapeNoDest                 // everything read
	shapeLoad                   // registers before the memory operand written
	shapeStore                  // registers read, memory written
	shapeStoreExcl              // status register written, memory written
)

var (
	jumpRel = arch.Effects{Groups: arch.Groups(disasm.GroupJump, disasm.GroupBranchRelative)}
	trap    = arch.Effects{Groups: arch.Groups(disasm.GroupInt)}
	priv    = arch.Effects{Groups: arch.Groups(disasm.GroupPrivilege)}
)

var opEffects = map[arm64asm.Op]arch.Effects{
	arm64asm.B:     jumpRel,
	arm64asm.BL:    {Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall, disasm.GroupBranchRelative)},
	arm64asm.BLR:   {Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall)},
	arm64asm.BR:    {Groups: arch.Groups(disasm.GroupJump)},
	arm64asm.RET:   {Groups: arch.Groups(disasm.GroupRet)},
	arm64asm.CBZ:   jumpRel,
	arm64asm.CBNZ:  jumpRel,
	arm64asm.TBZ:   jumpRel,
	arm64asm.TBNZ:  jumpRel,
	arm64asm.SVC:   trap,
	arm64asm.HVC:   trap,
	arm64asm.SMC:   trap,
	arm64asm.BRK:   trap,
	arm64asm.HLT:   trap,
	arm64asm.ERET:  {Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)},
	arm64asm.DRPS:  priv,
	arm64asm.DCPS1: priv,
	arm64asm.DCPS2: priv,
	arm64asm.DCPS3: priv,
}

var flagWriters = opSet(
	arm64asm.ADDS, arm64asm.SUBS, arm64asm.CMP, arm64asm.CMN, arm64asm.TST,
	arm64asm.ANDS, arm64asm.BICS, arm64asm.ADCS, arm64asm.SBCS, arm64asm.NEGS,
	arm64asm.NGCS, arm64asm.CCMP, arm64asm.CCMN, arm64asm.FCMP, arm64asm.FCMPE,
	arm64asm.FCCMP, arm64asm.FCCMPE,
)

var flagReaders = opSet(
	arm64asm.ADC, arm64asm.SBC, arm64asm.ADCS, arm64asm.SBCS, arm64asm.NGCS,
	arm64asm.CSEL, arm64asm.CSET, arm64asm.CSINC, arm64asm.CSETM, arm64asm.CSINV,
	arm64asm.CSNEG, arm64asm.CINC, arm64asm.CINV, arm64asm.CNEG, arm64asm.CCMP,
	arm64asm.CCMN, arm64asm.FCCMP, arm64asm.FCCMPE, arm64asm.FCSEL,
)

var noDest = opSet(
	arm64asm.CMP, arm64asm.CMN, arm64asm.TST, arm64asm.CCMP, arm64asm.CCMN,
	arm64asm.FCMP, arm64asm.FCMPE, arm64asm.FCCMP, arm64asm.FCCMPE,
	arm64asm.B, arm64asm.BL, arm64asm.BR, arm64asm.BLR, arm64asm.RET,
	arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ,
	arm64asm.SVC, arm64asm.HVC, arm64asm.SMC, arm64asm.BRK, arm64asm.HLT,
	arm64asm.NOP, arm64asm.MSR, arm64asm.PRFM, arm64asm.PRFUM, arm64asm.HINT,
	arm64asm.DMB, arm64asm.DSB, arm64asm.ISB, arm64asm.CLREX, arm64asm.SYS,
	arm64asm.TLBI, arm64asm.DC, arm64asm.IC, arm64asm.AT,
)

var exclusiveStores = opSet(
	arm64asm.STXR, arm64asm.STLXR, arm64asm.STXP, arm64asm.STLXP,
	arm64asm.STXRB, arm64asm.STXRH, arm64asm.STLXRB, arm64asm.STLXRH,
)

func opSet(ops ...arm64asm.Op) map[arm64asm.Op]bool {
	m := make(map[arm64asm.Op]bool, len(ops))
	for _, op := range ops {
		m[op] = true
	}
	return m
}

func shapeOf(op arm64asm.Op) shape {
	switch name := op.String(); {
	case noDest[op]:
		return shapeNoDest
	case exclusiveStores[op]:
		return shapeStoreExcl
	case strings.HasPrefix(name, "ST"):
		return shapeStore
	case strings.HasPrefix(name, "LD"):
		return shapeLoad
	}
	return shapeDest
}

// effects combines the opcode table with the flag usage of the opcode.
// Conditional branches read the flags too.
func effects(inst arm64asm.Inst) arch.Effects {
	var extra arch.Effects
	if flagWriters[inst.Op] {
		extra.Write = append(extra.Write, RegNZCV)
	}
	if flagReaders[inst.Op] {
		extra.Read = append(extra.Read, RegNZCV)
	}
	if inst.Op == arm64asm.B {
		if _, ok := inst.Args[0].(arm64asm.Cond); ok {
			extra.Read = append(extra.Read, RegNZCV)
		}
	}
	return opEffects[inst.Op].Merge(extra)
}

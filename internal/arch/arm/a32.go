package arm

import (
	"strings"
	"sync"

	"golang.org/x/arch/arm/armasm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// armasm keeps a package-level coverage table that Decode writes to.
var libMu sync.Mutex

var (
	flagsRead = arch.Effects{Read: arch.Regs(RegCPSR)}
	stackOp   = arch.Effects{Read: arch.Regs(RegSP), Write: arch.Regs(RegSP)}
)

// a32Effects is keyed by opcode family (the EQ variant).
var a32Effects = map[armasm.Op]arch.Effects{
	armasm.B_EQ:   {Groups: arch.Groups(disasm.GroupJump, disasm.GroupBranchRelative)},
	armasm.BL_EQ:  {Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall, disasm.GroupBranchRelative)},
	armasm.BLX_EQ: {Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall)},
	armasm.BX_EQ:  {Groups: arch.Groups(disasm.GroupJump)},
	armasm.BXJ_EQ: {Groups: arch.Groups(disasm.GroupJump)},

	armasm.SVC_EQ:  {Groups: arch.Groups(disasm.GroupInt)},
	armasm.BKPT_EQ: {Groups: arch.Groups(disasm.GroupInt)},

	armasm.PUSH_EQ: stackOp,
	armasm.POP_EQ:  stackOp,

	armasm.ADC_EQ:   flagsRead,
	armasm.ADC_S_EQ: flagsRead,
	armasm.SBC_EQ:   flagsRead,
	armasm.SBC_S_EQ: flagsRead,
	armasm.RSC_EQ:   flagsRead,
	armasm.RSC_S_EQ: flagsRead,
	armasm.RRX_EQ:   flagsRead,
	armasm.RRX_S_EQ: flagsRead,
}

var a32Shapes = map[armasm.Op]shape{}

func init() {
	set := func(s shape, ops ...armasm.Op) {
		for _, op := range ops {
			a32Shapes[op] = s
		}
	}
	set(shapeNoDest,
		armasm.CMP_EQ, armasm.CMN_EQ, armasm.TST_EQ, armasm.TEQ_EQ,
		armasm.B_EQ, armasm.BL_EQ, armasm.BX_EQ, armasm.BLX_EQ, armasm.BXJ_EQ,
		armasm.SVC_EQ, armasm.BKPT_EQ, armasm.NOP_EQ, armasm.WFE_EQ, armasm.WFI_EQ,
		armasm.SEV_EQ, armasm.YIELD_EQ, armasm.DBG_EQ, armasm.PLD_W, armasm.CLREX,
		armasm.DMB, armasm.ISB, armasm.SETEND, armasm.UNDEF,
		armasm.VCMP_EQ_F32, armasm.VCMP_EQ_F64, armasm.VCMP_E_EQ_F32, armasm.VCMP_E_EQ_F64,
	)
	set(shapeStore,
		armasm.STR_EQ, armasm.STRB_EQ, armasm.STRBT_EQ, armasm.STRD_EQ, armasm.STRH_EQ,
		armasm.STRHT_EQ, armasm.STRT_EQ, armasm.VSTR_EQ,
	)
	set(shapeStoreExcl, armasm.STREX_EQ, armasm.STREXB_EQ, armasm.STREXD_EQ, armasm.STREXH_EQ)
	set(shapeLoad,
		armasm.LDR_EQ, armasm.LDRB_EQ, armasm.LDRBT_EQ, armasm.LDRD_EQ, armasm.LDREX_EQ,
		armasm.LDREXB_EQ, armasm.LDREXD_EQ, armasm.LDREXH_EQ, armasm.LDRH_EQ, armasm.LDRHT_EQ,
		armasm.LDRSB_EQ, armasm.LDRSBT_EQ, armasm.LDRSH_EQ, armasm.LDRSHT_EQ, armasm.LDRT_EQ,
		armasm.VLDR_EQ,
	)
	set(shapeLoadMulti, armasm.LDM_EQ, armasm.LDMDA_EQ, armasm.LDMDB_EQ, armasm.LDMIB_EQ, armasm.POP_EQ)
	set(shapeStoreMulti, armasm.STM_EQ, armasm.STMDA_EQ, armasm.STMDB_EQ, armasm.STMIB_EQ, armasm.PUSH_EQ)
	set(shapeDest2,
		armasm.UMULL_EQ, armasm.UMULL_S_EQ, armasm.SMULL_EQ, armasm.SMULL_S_EQ,
	)
	set(shapeAcc2,
		armasm.UMLAL_EQ, armasm.UMLAL_S_EQ, armasm.SMLAL_EQ, armasm.SMLAL_S_EQ, armasm.UMAAL_EQ,
		armasm.SMLALBB_EQ, armasm.SMLALBT_EQ, armasm.SMLALTB_EQ, armasm.SMLALTT_EQ,
		armasm.SMLALD_EQ, armasm.SMLALD_X_EQ, armasm.SMLSLD_EQ, armasm.SMLSLD_X_EQ,
	)
}

// compares update the flags without an S suffix.
var compares = map[armasm.Op]bool{
	armasm.CMP_EQ: true,
	armasm.CMN_EQ: true,
	armasm.TST_EQ: true,
	armasm.TEQ_EQ: true,
}

// opName is the GNU mnemonic of op with its condition suffix.
func opName(op armasm.Op) string {
	return armasm.GNUSyntax(armasm.Inst{Op: op})
}

func validOp(op armasm.Op) bool {
	return op != 0 && !strings.HasPrefix(op.String(), "Op(")
}

// condOf maps the low four bits of a conditional armasm opcode to the
// ARMCond numbering. Opcodes whose family has no condition are always AL.
func condOf(op armasm.Op) uint {
	if !strings.Contains((op &^ 15).String(), ".EQ") {
		return disasm.ARMCondAL
	}
	c := uint(op & 15)
	if c >= 14 {
		return disasm.ARMCondAL
	}
	return c + 1
}

func decodeA32(code []byte, addr uint64, mode disasm.Mode) (*insn, error) {
	if len(code) < 4 {
		return nil, arch.ErrShort
	}
	word := code[:4]
	if mode.BigEndian() {
		word = arch.SwapWord(code)
	}
	libMu.Lock()
	inst, err := armasm.Decode(word, armasm.ModeARM)
	libMu.Unlock()
	if err != nil {
		return nil, arch.ErrInvalid
	}

	family := inst.Op &^ 15
	in := &insn{
		id:       uint(inst.Op),
		size:     4,
		mnemonic: opName(inst.Op),
		cond:     condOf(inst.Op),
		setFlags: compares[family] || strings.Contains(family.String(), ".S."),
		shape:    a32Shapes[family],
		eff:      a32Effects[family],
		bx:       family == armasm.BX_EQ || family == armasm.BLX_EQ || family == armasm.BXJ_EQ,
	}
	for i, a := range inst.Args {
		if a == nil {
			break
		}
		// The second register of a doubleword pair is implied.
		switch {
		case i == 1 && (family == armasm.LDRD_EQ || family == armasm.LDREXD_EQ || family == armasm.STRD_EQ):
			continue
		case i == 2 && family == armasm.STREXD_EQ:
			continue
		}
		if rel, ok := a.(armasm.PCRel); ok {
			a = target(uint32(addr) + 8 + uint32(rel))
		}
		in.args = append(in.args, a)
	}
	return in, nil
}

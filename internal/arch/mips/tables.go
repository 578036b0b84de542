package mips

// form is the operand layout of an encoding.
type form uint8

const (
	fNone     form = iota
	fRdRsRt        // add rd, rs, rt
	fRdRtRs        // sllv rd, rt, rs
	fRdRtSa        // sll rd, rt, sa
	fRdRs          // move rd, rs / clz rd, rs
	fRdRt          // negu rd, rt / seb rd, rt
	fJalr          // jalr [rd,] rs
	fRs            // jr rs / mthi rs
	fRd            // mfhi rd
	fRsRt          // mult rs, rt
	fTrap          // teq rs, rt
	fRtRsImm       // addiu rt, rs, simm
	fRtRsUImm      // andi rt, rs, uimm
	fRtUImm        // lui rt, uimm
	fRsRtOff       // beq rs, rt, target
	fRsOff         // bgez rs, target
	fOff           // b target
	fRsImm         // teqi rs, simm
	fJump          // j target
	fMem           // lw rt, off(base)
	fFtMem         // lwc1 ft, off(base)
	fHintMem       // cache op, off(base)
	fBaseMem       // synci off(base)
	fSyscall       // syscall [code]
	fBreak         // break [code[, code]]
	fWait          // wait [code]
	fSync          // sync [stype]
	fRtFs          // mfc1 rt, fs
	fRtFcr         // cfc1 rt, fcr
	fRtCop0        // mfc0 rt, rd, sel
	fRtOpt         // di [rt]
	fFdFsFt        // add.s fd, fs, ft
	fFdFs          // sqrt.s fd, fs
	fFdFsRt        // movz.s fd, fs, rt
	fFdFsCc        // movf.s fd, fs, cc
	fRdRsCc        // movf rd, rs, cc
	fCcFsFt        // c.eq.s cc, fs, ft
	fCcOff         // bc1t cc, target
	fExt           // ext rt, rs, pos, size
	fIns           // ins rt, rs, pos, size
	fRtRdHw        // rdhwr rt, rd
)

// Entry flags.
const (
	flag64 uint8 = 1 << iota // needs a 64-bit mode
	flagFP                   // coprocessor 1
)

// instFormat is one encoding. Decode takes the first entry, in table
// order, whose masked bits match, so aliases sit above their base form.
type instFormat struct {
	mask  uint32
	value uint32
	op    Op
	form  form
	flags uint8
	// Extra bit offsets for the doubleword ext/ins variants.
	posAdd  uint8
	sizeAdd uint8
}

const (
	mSpecial  = 0xFC00003F // opcode + funct
	mRType    = 0xFC0007FF // opcode + sa=0 + funct
	mShift    = 0xFFE0003F // opcode + rs=0 + funct
	mOpcode   = 0xFC000000
	mRegimm   = 0xFC1F0000
	mRsZero   = 0xFC1F0000 // opcode + rt=0 (blez/bgtz)
	mCop      = 0xFFE007FF // opcode + rs + low bits clear
	mCop0Move = 0xFFE007F8 // mfc0 family, sel in the low three bits
)

var instFormats = []instFormat{
	// SPECIAL aliases.
	{0xFFFFFFFF, 0x00000000, NOP, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x00000040, SSNOP, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x000000C0, EHB, fNone, 0, 0, 0},
	{0xFC1F07FF, 0x00000025, MOVE, fRdRs, 0, 0, 0},
	{0xFC1F07FF, 0x00000021, MOVE, fRdRs, 0, 0, 0},
	{0xFC1F07FF, 0x0000002D, MOVE, fRdRs, flag64, 0, 0},
	{0xFFE007FF, 0x00000023, NEGU, fRdRt, 0, 0, 0},
	{0xFC1F07FF, 0x00000027, NOT, fRdRs, 0, 0, 0},

	// SPECIAL.
	{mShift, 0x00000000, SLL, fRdRtSa, 0, 0, 0},
	{0xFC0307FF, 0x00000001, MOVF, fRdRsCc, 0, 0, 0},
	{0xFC0307FF, 0x00010001, MOVT, fRdRsCc, 0, 0, 0},
	{mShift, 0x00000002, SRL, fRdRtSa, 0, 0, 0},
	{mShift, 0x00200002, ROTR, fRdRtSa, 0, 0, 0},
	{mShift, 0x00000003, SRA, fRdRtSa, 0, 0, 0},
	{mRType, 0x00000004, SLLV, fRdRtRs, 0, 0, 0},
	{mRType, 0x00000006, SRLV, fRdRtRs, 0, 0, 0},
	{mRType, 0x00000046, ROTRV, fRdRtRs, 0, 0, 0},
	{mRType, 0x00000007, SRAV, fRdRtRs, 0, 0, 0},
	{0xFC1FF83F, 0x00000008, JR, fRs, 0, 0, 0},
	{0xFC1F003F, 0x00000009, JALR, fJalr, 0, 0, 0},
	{mRType, 0x0000000A, MOVZ, fRdRsRt, 0, 0, 0},
	{mRType, 0x0000000B, MOVN, fRdRsRt, 0, 0, 0},
	{mSpecial, 0x0000000C, SYSCALL, fSyscall, 0, 0, 0},
	{mSpecial, 0x0000000D, BREAK, fBreak, 0, 0, 0},
	{0xFFFFF83F, 0x0000000F, SYNC, fSync, 0, 0, 0},
	{0xFFFF07FF, 0x00000010, MFHI, fRd, 0, 0, 0},
	{0xFC1FFFFF, 0x00000011, MTHI, fRs, 0, 0, 0},
	{0xFFFF07FF, 0x00000012, MFLO, fRd, 0, 0, 0},
	{0xFC1FFFFF, 0x00000013, MTLO, fRs, 0, 0, 0},
	{mRType, 0x00000014, DSLLV, fRdRtRs, flag64, 0, 0},
	{mRType, 0x00000016, DSRLV, fRdRtRs, flag64, 0, 0},
	{mRType, 0x00000056, DROTRV, fRdRtRs, flag64, 0, 0},
	{mRType, 0x00000017, DSRAV, fRdRtRs, flag64, 0, 0},
	{0xFC00FFFF, 0x00000018, MULT, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x00000019, MULTU, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x0000001A, DIV, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x0000001B, DIVU, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x0000001C, DMULT, fRsRt, flag64, 0, 0},
	{0xFC00FFFF, 0x0000001D, DMULTU, fRsRt, flag64, 0, 0},
	{0xFC00FFFF, 0x0000001E, DDIV, fRsRt, flag64, 0, 0},
	{0xFC00FFFF, 0x0000001F, DDIVU, fRsRt, flag64, 0, 0},
	{mRType, 0x00000020, ADD, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000021, ADDU, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000022, SUB, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000023, SUBU, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000024, AND, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000025, OR, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000026, XOR, fRdRsRt, 0, 0, 0},
	{mRType, 0x00000027, NOR, fRdRsRt, 0, 0, 0},
	{mRType, 0x0000002A, SLT, fRdRsRt, 0, 0, 0},
	{mRType, 0x0000002B, SLTU, fRdRsRt, 0, 0, 0},
	{mRType, 0x0000002C, DADD, fRdRsRt, flag64, 0, 0},
	{mRType, 0x0000002D, DADDU, fRdRsRt, flag64, 0, 0},
	{mRType, 0x0000002E, DSUB, fRdRsRt, flag64, 0, 0},
	{mRType, 0x0000002F, DSUBU, fRdRsRt, flag64, 0, 0},
	{mSpecial, 0x00000030, TGE, fTrap, 0, 0, 0},
	{mSpecial, 0x00000031, TGEU, fTrap, 0, 0, 0},
	{mSpecial, 0x00000032, TLT, fTrap, 0, 0, 0},
	{mSpecial, 0x00000033, TLTU, fTrap, 0, 0, 0},
	{mSpecial, 0x00000034, TEQ, fTrap, 0, 0, 0},
	{mSpecial, 0x00000036, TNE, fTrap, 0, 0, 0},
	{mShift, 0x00000038, DSLL, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0000003A, DSRL, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0020003A, DROTR, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0000003B, DSRA, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0000003C, DSLL32, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0000003E, DSRL32, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0020003E, DROTR32, fRdRtSa, flag64, 0, 0},
	{mShift, 0x0000003F, DSRA32, fRdRtSa, flag64, 0, 0},

	// REGIMM.
	{0xFFFF0000, 0x04110000, BAL, fOff, 0, 0, 0},
	{mRegimm, 0x04000000, BLTZ, fRsOff, 0, 0, 0},
	{mRegimm, 0x04010000, BGEZ, fRsOff, 0, 0, 0},
	{mRegimm, 0x04020000, BLTZL, fRsOff, 0, 0, 0},
	{mRegimm, 0x04030000, BGEZL, fRsOff, 0, 0, 0},
	{mRegimm, 0x04080000, TGEI, fRsImm, 0, 0, 0},
	{mRegimm, 0x04090000, TGEIU, fRsImm, 0, 0, 0},
	{mRegimm, 0x040A0000, TLTI, fRsImm, 0, 0, 0},
	{mRegimm, 0x040B0000, TLTIU, fRsImm, 0, 0, 0},
	{mRegimm, 0x040C0000, TEQI, fRsImm, 0, 0, 0},
	{mRegimm, 0x040E0000, TNEI, fRsImm, 0, 0, 0},
	{mRegimm, 0x04100000, BLTZAL, fRsOff, 0, 0, 0},
	{mRegimm, 0x04110000, BGEZAL, fRsOff, 0, 0, 0},
	{mRegimm, 0x04120000, BLTZALL, fRsOff, 0, 0, 0},
	{mRegimm, 0x04130000, BGEZALL, fRsOff, 0, 0, 0},
	{mRegimm, 0x041F0000, SYNCI, fBaseMem, 0, 0, 0},

	// Jumps and branches.
	{mOpcode, 0x08000000, J, fJump, 0, 0, 0},
	{mOpcode, 0x0C000000, JAL, fJump, 0, 0, 0},
	{0xFFFF0000, 0x10000000, B, fOff, 0, 0, 0},
	{mRsZero, 0x10000000, BEQZ, fRsOff, 0, 0, 0},
	{mOpcode, 0x10000000, BEQ, fRsRtOff, 0, 0, 0},
	{mRsZero, 0x14000000, BNEZ, fRsOff, 0, 0, 0},
	{mOpcode, 0x14000000, BNE, fRsRtOff, 0, 0, 0},
	{mRsZero, 0x18000000, BLEZ, fRsOff, 0, 0, 0},
	{mRsZero, 0x1C000000, BGTZ, fRsOff, 0, 0, 0},
	{mOpcode, 0x50000000, BEQL, fRsRtOff, 0, 0, 0},
	{mOpcode, 0x54000000, BNEL, fRsRtOff, 0, 0, 0},
	{mRsZero, 0x58000000, BLEZL, fRsOff, 0, 0, 0},
	{mRsZero, 0x5C000000, BGTZL, fRsOff, 0, 0, 0},

	// Immediate arithmetic.
	{mOpcode, 0x20000000, ADDI, fRtRsImm, 0, 0, 0},
	{mOpcode, 0x24000000, ADDIU, fRtRsImm, 0, 0, 0},
	{mOpcode, 0x28000000, SLTI, fRtRsImm, 0, 0, 0},
	{mOpcode, 0x2C000000, SLTIU, fRtRsImm, 0, 0, 0},
	{mOpcode, 0x30000000, ANDI, fRtRsUImm, 0, 0, 0},
	{mOpcode, 0x34000000, ORI, fRtRsUImm, 0, 0, 0},
	{mOpcode, 0x38000000, XORI, fRtRsUImm, 0, 0, 0},
	{0xFFE00000, 0x3C000000, LUI, fRtUImm, 0, 0, 0},
	{mOpcode, 0x60000000, DADDI, fRtRsImm, flag64, 0, 0},
	{mOpcode, 0x64000000, DADDIU, fRtRsImm, flag64, 0, 0},

	// COP0.
	{mCop0Move, 0x40000000, MFC0, fRtCop0, 0, 0, 0},
	{mCop0Move, 0x40200000, DMFC0, fRtCop0, flag64, 0, 0},
	{mCop0Move, 0x40800000, MTC0, fRtCop0, 0, 0, 0},
	{mCop0Move, 0x40A00000, DMTC0, fRtCop0, flag64, 0, 0},
	{0xFFE0FFFF, 0x41606000, DI, fRtOpt, 0, 0, 0},
	{0xFFE0FFFF, 0x41606020, EI, fRtOpt, 0, 0, 0},
	{0xFFFFFFFF, 0x42000001, TLBR, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x42000002, TLBWI, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x42000006, TLBWR, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x42000008, TLBP, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x42000018, ERET, fNone, 0, 0, 0},
	{0xFFFFFFFF, 0x4200001F, DERET, fNone, 0, 0, 0},
	{0xFE00003F, 0x42000020, WAIT, fWait, 0, 0, 0},

	// COP1 moves and branches. The fmt arithmetic is appended in init.
	{mCop, 0x44000000, MFC1, fRtFs, flagFP, 0, 0},
	{mCop, 0x44200000, DMFC1, fRtFs, flagFP | flag64, 0, 0},
	{mCop, 0x44400000, CFC1, fRtFcr, flagFP, 0, 0},
	{mCop, 0x44600000, MFHC1, fRtFs, flagFP, 0, 0},
	{mCop, 0x44800000, MTC1, fRtFs, flagFP, 0, 0},
	{mCop, 0x44A00000, DMTC1, fRtFs, flagFP | flag64, 0, 0},
	{mCop, 0x44C00000, CTC1, fRtFcr, flagFP, 0, 0},
	{mCop, 0x44E00000, MTHC1, fRtFs, flagFP, 0, 0},
	{0xFFE30000, 0x45000000, BC1F, fCcOff, flagFP, 0, 0},
	{0xFFE30000, 0x45010000, BC1T, fCcOff, flagFP, 0, 0},
	{0xFFE30000, 0x45020000, BC1FL, fCcOff, flagFP, 0, 0},
	{0xFFE30000, 0x45030000, BC1TL, fCcOff, flagFP, 0, 0},

	// SPECIAL2.
	{0xFC00FFFF, 0x70000000, MADD, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x70000001, MADDU, fRsRt, 0, 0, 0},
	{mRType, 0x70000002, MUL, fRdRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x70000004, MSUB, fRsRt, 0, 0, 0},
	{0xFC00FFFF, 0x70000005, MSUBU, fRsRt, 0, 0, 0},
	{mRType, 0x70000020, CLZ, fRdRs, 0, 0, 0},
	{mRType, 0x70000021, CLO, fRdRs, 0, 0, 0},
	{mRType, 0x70000024, DCLZ, fRdRs, flag64, 0, 0},
	{mRType, 0x70000025, DCLO, fRdRs, flag64, 0, 0},
	{mSpecial, 0x7000003F, SDBBP, fSyscall, 0, 0, 0},

	// SPECIAL3.
	{mSpecial, 0x7C000000, EXT, fExt, 0, 0, 0},
	{mSpecial, 0x7C000001, DEXTM, fExt, flag64, 0, 32},
	{mSpecial, 0x7C000002, DEXTU, fExt, flag64, 32, 0},
	{mSpecial, 0x7C000003, DEXT, fExt, flag64, 0, 0},
	{mSpecial, 0x7C000004, INS, fIns, 0, 0, 0},
	{mSpecial, 0x7C000005, DINSM, fIns, flag64, 0, 32},
	{mSpecial, 0x7C000006, DINSU, fIns, flag64, 32, 32},
	{mSpecial, 0x7C000007, DINS, fIns, flag64, 0, 0},
	{0xFFE007FF, 0x7C0000A0, WSBH, fRdRt, 0, 0, 0},
	{0xFFE007FF, 0x7C000420, SEB, fRdRt, 0, 0, 0},
	{0xFFE007FF, 0x7C000620, SEH, fRdRt, 0, 0, 0},
	{0xFFE007FF, 0x7C0000A4, DSBH, fRdRt, flag64, 0, 0},
	{0xFFE007FF, 0x7C000164, DSHD, fRdRt, flag64, 0, 0},
	{0xFFE007FF, 0x7C00003B, RDHWR, fRtRdHw, 0, 0, 0},

	// Loads and stores.
	{mOpcode, 0x68000000, LDL, fMem, flag64, 0, 0},
	{mOpcode, 0x6C000000, LDR, fMem, flag64, 0, 0},
	{mOpcode, 0x80000000, LB, fMem, 0, 0, 0},
	{mOpcode, 0x84000000, LH, fMem, 0, 0, 0},
	{mOpcode, 0x88000000, LWL, fMem, 0, 0, 0},
	{mOpcode, 0x8C000000, LW, fMem, 0, 0, 0},
	{mOpcode, 0x90000000, LBU, fMem, 0, 0, 0},
	{mOpcode, 0x94000000, LHU, fMem, 0, 0, 0},
	{mOpcode, 0x98000000, LWR, fMem, 0, 0, 0},
	{mOpcode, 0x9C000000, LWU, fMem, flag64, 0, 0},
	{mOpcode, 0xA0000000, SB, fMem, 0, 0, 0},
	{mOpcode, 0xA4000000, SH, fMem, 0, 0, 0},
	{mOpcode, 0xA8000000, SWL, fMem, 0, 0, 0},
	{mOpcode, 0xAC000000, SW, fMem, 0, 0, 0},
	{mOpcode, 0xB0000000, SDL, fMem, flag64, 0, 0},
	{mOpcode, 0xB4000000, SDR, fMem, flag64, 0, 0},
	{mOpcode, 0xB8000000, SWR, fMem, 0, 0, 0},
	{mOpcode, 0xBC000000, CACHE, fHintMem, 0, 0, 0},
	{mOpcode, 0xC0000000, LL, fMem, 0, 0, 0},
	{mOpcode, 0xC4000000, LWC1, fFtMem, flagFP, 0, 0},
	{mOpcode, 0xCC000000, PREF, fHintMem, 0, 0, 0},
	{mOpcode, 0xD0000000, LLD, fMem, flag64, 0, 0},
	{mOpcode, 0xD4000000, LDC1, fFtMem, flagFP, 0, 0},
	{mOpcode, 0xDC000000, LD, fMem, flag64, 0, 0},
	{mOpcode, 0xE0000000, SC, fMem, 0, 0, 0},
	{mOpcode, 0xE4000000, SWC1, fFtMem, flagFP, 0, 0},
	{mOpcode, 0xF0000000, SCD, fMem, flag64, 0, 0},
	{mOpcode, 0xF4000000, SDC1, fFtMem, flagFP, 0, 0},
	{mOpcode, 0xFC000000, SD, fMem, flag64, 0, 0},
}

// COP1 fmt field values.
const (
	fmtS = 16
	fmtD = 17
	fmtW = 20
	fmtL = 21
)

// fpOps lists the COP1 arithmetic encodings by funct and source format.
var fpOps = []struct {
	funct uint32
	fmt   uint32
	op    Op
	form  form
	flags uint8
}{
	{0x00, fmtS, ADD_S, fFdFsFt, 0}, {0x00, fmtD, ADD_D, fFdFsFt, 0},
	{0x01, fmtS, SUB_S, fFdFsFt, 0}, {0x01, fmtD, SUB_D, fFdFsFt, 0},
	{0x02, fmtS, MUL_S, fFdFsFt, 0}, {0x02, fmtD, MUL_D, fFdFsFt, 0},
	{0x03, fmtS, DIV_S, fFdFsFt, 0}, {0x03, fmtD, DIV_D, fFdFsFt, 0},
	{0x04, fmtS, SQRT_S, fFdFs, 0}, {0x04, fmtD, SQRT_D, fFdFs, 0},
	{0x05, fmtS, ABS_S, fFdFs, 0}, {0x05, fmtD, ABS_D, fFdFs, 0},
	{0x06, fmtS, MOV_S, fFdFs, 0}, {0x06, fmtD, MOV_D, fFdFs, 0},
	{0x07, fmtS, NEG_S, fFdFs, 0}, {0x07, fmtD, NEG_D, fFdFs, 0},
	{0x08, fmtS, ROUND_L_S, fFdFs, flag64}, {0x08, fmtD, ROUND_L_D, fFdFs, flag64},
	{0x09, fmtS, TRUNC_L_S, fFdFs, flag64}, {0x09, fmtD, TRUNC_L_D, fFdFs, flag64},
	{0x0A, fmtS, CEIL_L_S, fFdFs, flag64}, {0x0A, fmtD, CEIL_L_D, fFdFs, flag64},
	{0x0B, fmtS, FLOOR_L_S, fFdFs, flag64}, {0x0B, fmtD, FLOOR_L_D, fFdFs, flag64},
	{0x0C, fmtS, ROUND_W_S, fFdFs, 0}, {0x0C, fmtD, ROUND_W_D, fFdFs, 0},
	{0x0D, fmtS, TRUNC_W_S, fFdFs, 0}, {0x0D, fmtD, TRUNC_W_D, fFdFs, 0},
	{0x0E, fmtS, CEIL_W_S, fFdFs, 0}, {0x0E, fmtD, CEIL_W_D, fFdFs, 0},
	{0x0F, fmtS, FLOOR_W_S, fFdFs, 0}, {0x0F, fmtD, FLOOR_W_D, fFdFs, 0},
	{0x12, fmtS, MOVZ_S, fFdFsRt, 0}, {0x12, fmtD, MOVZ_D, fFdFsRt, 0},
	{0x13, fmtS, MOVN_S, fFdFsRt, 0}, {0x13, fmtD, MOVN_D, fFdFsRt, 0},
	{0x20, fmtD, CVT_S_D, fFdFs, 0}, {0x20, fmtW, CVT_S_W, fFdFs, 0}, {0x20, fmtL, CVT_S_L, fFdFs, flag64},
	{0x21, fmtS, CVT_D_S, fFdFs, 0}, {0x21, fmtW, CVT_D_W, fFdFs, 0}, {0x21, fmtL, CVT_D_L, fFdFs, flag64},
	{0x24, fmtS, CVT_W_S, fFdFs, 0}, {0x24, fmtD, CVT_W_D, fFdFs, 0},
	{0x25, fmtS, CVT_L_S, fFdFs, flag64}, {0x25, fmtD, CVT_L_D, fFdFs, flag64},
}

// byPrimary indexes instFormats by the six-bit primary opcode.
var byPrimary [64][]*instFormat

func init() {
	const cop1 = 0x44000000
	for _, f := range fpOps {
		mask := uint32(0xFFE0003F)
		if f.form == fFdFs {
			mask |= 0x001F0000 // ft must be zero
		}
		instFormats = append(instFormats, instFormat{
			mask: mask, value: cop1 | f.fmt<<21 | f.funct,
			op: f.op, form: f.form, flags: flagFP | f.flags,
		})
	}
	for i, fmtBits := range []uint32{fmtS, fmtD} {
		movf, movt := MOVF_S, MOVT_S
		base := C_F_S
		if i == 1 {
			movf, movt, base = MOVF_D, MOVT_D, C_F_D
		}
		instFormats = append(instFormats,
			instFormat{mask: 0xFFE3003F, value: cop1 | fmtBits<<21 | 0x11, op: movf, form: fFdFsCc, flags: flagFP},
			instFormat{mask: 0xFFE3003F, value: cop1 | fmtBits<<21 | 0x10000 | 0x11, op: movt, form: fFdFsCc, flags: flagFP},
		)
		for cond := uint32(0); cond < 16; cond++ {
			instFormats = append(instFormats, instFormat{
				mask: 0xFFE000FF, value: cop1 | fmtBits<<21 | 0x30 | cond,
				op: base + Op(cond), form: fCcFsFt, flags: flagFP,
			})
		}
	}
	for i := range instFormats {
		f := &instFormats[i]
		p := f.value >> 26
		byPrimary[p] = append(byPrimary[p], f)
	}
}

func lookup(x uint32, is64 bool) *instFormat {
	for _, f := range byPrimary[x>>26] {
		if x&f.mask != f.value {
			continue
		}
		if f.flags&flag64 != 0 && !is64 {
			return nil
		}
		return f
	}
	return nil
}

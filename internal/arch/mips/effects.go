package mips

import (
	"dissect/internal/arch"
	"dissect/internal/disasm"
)

var (
	branch     = arch.Effects{Groups: arch.Groups(disasm.GroupJump, disasm.GroupBranchRelative)}
	branchLink = arch.Effects{
		Write:  arch.Regs(RegRA),
		Groups: arch.Groups(disasm.GroupCall, disasm.GroupBranchRelative),
	}
	hiloWrite = arch.Effects{Write: arch.Regs(RegHI, RegLO)}
	hiloAcc   = arch.Effects{Read: arch.Regs(RegHI, RegLO), Write: arch.Regs(RegHI, RegLO)}
	privilege = arch.Effects{Groups: arch.Groups(disasm.GroupPrivilege)}
)

// effects holds the implicit register use and group membership of each
// opcode. Registers named by operands are not listed here.
var effects = map[Op]arch.Effects{
	J:    {Groups: arch.Groups(disasm.GroupJump)},
	JR:   {Groups: arch.Groups(disasm.GroupJump)},
	JAL:  {Write: arch.Regs(RegRA), Groups: arch.Groups(disasm.GroupCall)},
	JALR: {Groups: arch.Groups(disasm.GroupCall)}, // link register is the rd operand

	B:     branch,
	BEQ:   branch,
	BEQL:  branch,
	BEQZ:  branch,
	BNE:   branch,
	BNEL:  branch,
	BNEZ:  branch,
	BLEZ:  branch,
	BLEZL: branch,
	BGTZ:  branch,
	BGTZL: branch,
	BLTZ:  branch,
	BLTZL: branch,
	BGEZ:  branch,
	BGEZL: branch,
	BC1F:  branch,
	BC1FL: branch,
	BC1T:  branch,
	BC1TL: branch,

	BAL:     branchLink,
	BGEZAL:  branchLink,
	BGEZALL: branchLink,
	BLTZAL:  branchLink,
	BLTZALL: branchLink,

	MULT:   hiloWrite,
	MULTU:  hiloWrite,
	DIV:    hiloWrite,
	DIVU:   hiloWrite,
	DMULT:  hiloWrite,
	DMULTU: hiloWrite,
	DDIV:   hiloWrite,
	DDIVU:  hiloWrite,
	MUL:    hiloWrite,
	MADD:   hiloAcc,
	MADDU:  hiloAcc,
	MSUB:   hiloAcc,
	MSUBU:  hiloAcc,
	MFHI:   {Read: arch.Regs(RegHI)},
	MFLO:   {Read: arch.Regs(RegLO)},
	MTHI:   {Write: arch.Regs(RegHI)},
	MTLO:   {Write: arch.Regs(RegLO)},

	SYSCALL: {Groups: arch.Groups(disasm.GroupInt)},
	BREAK:   {Groups: arch.Groups(disasm.GroupInt)},
	SDBBP:   {Groups: arch.Groups(disasm.GroupInt)},
	ERET:    {Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)},
	DERET:   {Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)},

	MFC0:  privilege,
	MTC0:  privilege,
	DMFC0: privilege,
	DMTC0: privilege,
	TLBR:  privilege,
	TLBWI: privilege,
	TLBWR: privilege,
	TLBP:  privilege,
	WAIT:  privilege,
	DI:    privilege,
	EI:    privilege,
	CACHE: privilege,
}

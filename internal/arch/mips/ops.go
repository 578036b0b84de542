package mips

import "fmt"

// Op is a MIPS opcode identity.
type Op uint16

const (
	_ Op = iota
	ABS_D
	ABS_S
	ADD
	ADD_D
	ADD_S
	ADDI
	ADDIU
	ADDU
	AND
	ANDI
	B
	BAL
	BC1F
	BC1FL
	BC1T
	BC1TL
	BEQ
	BEQL
	BEQZ
	BGEZ
	BGEZAL
	BGEZALL
	BGEZL
	BGTZ
	BGTZL
	BLEZ
	BLEZL
	BLTZ
	BLTZAL
	BLTZALL
	BLTZL
	BNE
	BNEL
	BNEZ
	BREAK
	CACHE
	CEIL_L_D
	CEIL_L_S
	CEIL_W_D
	CEIL_W_S
	CFC1
	CLO
	CLZ
	CTC1
	CVT_D_L
	CVT_D_S
	CVT_D_W
	CVT_L_D
	CVT_L_S
	CVT_S_D
	CVT_S_L
	CVT_S_W
	CVT_W_D
	CVT_W_S
	DADD
	DADDI
	DADDIU
	DADDU
	DCLO
	DCLZ
	DDIV
	DDIVU
	DERET
	DEXT
	DEXTM
	DEXTU
	DI
	DINS
	DINSM
	DINSU
	DIV
	DIV_D
	DIV_S
	DIVU
	DMFC0
	DMFC1
	DMTC0
	DMTC1
	DMULT
	DMULTU
	DROTR
	DROTR32
	DROTRV
	DSBH
	DSHD
	DSLL
	DSLL32
	DSLLV
	DSRA
	DSRA32
	DSRAV
	DSRL
	DSRL32
	DSRLV
	DSUB
	DSUBU
	EHB
	EI
	ERET
	EXT
	FLOOR_L_D
	FLOOR_L_S
	FLOOR_W_D
	FLOOR_W_S
	INS
	J
	JAL
	JALR
	JR
	LB
	LBU
	LD
	LDC1
	LDL
	LDR
	LH
	LHU
	LL
	LLD
	LUI
	LW
	LWC1
	LWL
	LWR
	LWU
	MADD
	MADDU
	MFC0
	MFC1
	MFHC1
	MFHI
	MFLO
	MOV_D
	MOV_S
	MOVE
	MOVF
	MOVF_D
	MOVF_S
	MOVN
	MOVN_D
	MOVN_S
	MOVT
	MOVT_D
	MOVT_S
	MOVZ
	MOVZ_D
	MOVZ_S
	MSUB
	MSUBU
	MTC0
	MTC1
	MTHC1
	MTHI
	MTLO
	MUL
	MUL_D
	MUL_S
	MULT
	MULTU
	NEG_D
	NEG_S
	NEGU
	NOP
	NOR
	NOT
	OR
	ORI
	PREF
	RDHWR
	ROTR
	ROTRV
	ROUND_L_D
	ROUND_L_S
	ROUND_W_D
	ROUND_W_S
	SB
	SC
	SCD
	SD
	SDBBP
	SDC1
	SDL
	SDR
	SEB
	SEH
	SH
	SLL
	SLLV
	SLT
	SLTI
	SLTIU
	SLTU
	SQRT_D
	SQRT_S
	SRA
	SRAV
	SRL
	SRLV
	SSNOP
	SUB
	SUB_D
	SUB_S
	SUBU
	SW
	SWC1
	SWL
	SWR
	SYNC
	SYNCI
	SYSCALL
	TEQ
	TEQI
	TGE
	TGEI
	TGEIU
	TGEU
	TLBP
	TLBR
	TLBWI
	TLBWR
	TLT
	TLTI
	TLTIU
	TLTU
	TNE
	TNEI
	TRUNC_L_D
	TRUNC_L_S
	TRUNC_W_D
	TRUNC_W_S
	WAIT
	WSBH
	XOR
	XORI

	// c.cond.fmt, sixteen conditions per format in encoding order.
	C_F_S
	C_UN_S
	C_EQ_S
	C_UEQ_S
	C_OLT_S
	C_ULT_S
	C_OLE_S
	C_ULE_S
	C_SF_S
	C_NGLE_S
	C_SEQ_S
	C_NGL_S
	C_LT_S
	C_NGE_S
	C_LE_S
	C_NGT_S
	C_F_D
	C_UN_D
	C_EQ_D
	C_UEQ_D
	C_OLT_D
	C_ULT_D
	C_OLE_D
	C_ULE_D
	C_SF_D
	C_NGLE_D
	C_SEQ_D
	C_NGL_D
	C_LT_D
	C_NGE_D
	C_LE_D
	C_NGT_D

	opMax
)

var opNames = [opMax]string{
	ABS_D:     "abs.d",
	ABS_S:     "abs.s",
	ADD:       "add",
	ADD_D:     "add.d",
	ADD_S:     "add.s",
	ADDI:      "addi",
	ADDIU:     "addiu",
	ADDU:      "addu",
	AND:       "and",
	ANDI:      "andi",
	B:         "b",
	BAL:       "bal",
	BC1F:      "bc1f",
	BC1FL:     "bc1fl",
	BC1T:      "bc1t",
	BC1TL:     "bc1tl",
	BEQ:       "beq",
	BEQL:      "beql",
	BEQZ:      "beqz",
	BGEZ:      "bgez",
	BGEZAL:    "bgezal",
	BGEZALL:   "bgezall",
	BGEZL:     "bgezl",
	BGTZ:      "bgtz",
	BGTZL:     "bgtzl",
	BLEZ:      "blez",
	BLEZL:     "blezl",
	BLTZ:      "bltz",
	BLTZAL:    "bltzal",
	BLTZALL:   "bltzall",
	BLTZL:     "bltzl",
	BNE:       "bne",
	BNEL:      "bnel",
	BNEZ:      "bnez",
	BREAK:     "break",
	CACHE:     "cache",
	CEIL_L_D:  "ceil.l.d",
	CEIL_L_S:  "ceil.l.s",
	CEIL_W_D:  "ceil.w.d",
	CEIL_W_S:  "ceil.w.s",
	CFC1:      "cfc1",
	CLO:       "clo",
	CLZ:       "clz",
	CTC1:      "ctc1",
	CVT_D_L:   "cvt.d.l",
	CVT_D_S:   "cvt.d.s",
	CVT_D_W:   "cvt.d.w",
	CVT_L_D:   "cvt.l.d",
	CVT_L_S:   "cvt.l.s",
	CVT_S_D:   "cvt.s.d",
	CVT_S_L:   "cvt.s.l",
	CVT_S_W:   "cvt.s.w",
	CVT_W_D:   "cvt.w.d",
	CVT_W_S:   "cvt.w.s",
	DADD:      "dadd",
	DADDI:     "daddi",
	DADDIU:    "daddiu",
	DADDU:     "daddu",
	DCLO:      "dclo",
	DCLZ:      "dclz",
	DDIV:      "ddiv",
	DDIVU:     "ddivu",
	DERET:     "deret",
	DEXT:      "dext",
	DEXTM:     "dextm",
	DEXTU:     "dextu",
	DI:        "di",
	DINS:      "dins",
	DINSM:     "dinsm",
	DINSU:     "dinsu",
	DIV:       "div",
	DIV_D:     "div.d",
	DIV_S:     "div.s",
	DIVU:      "divu",
	DMFC0:     "dmfc0",
	DMFC1:     "dmfc1",
	DMTC0:     "dmtc0",
	DMTC1:     "dmtc1",
	DMULT:     "dmult",
	DMULTU:    "dmultu",
	DROTR:     "drotr",
	DROTR32:   "drotr32",
	DROTRV:    "drotrv",
	DSBH:      "dsbh",
	DSHD:      "dshd",
	DSLL:      "dsll",
	DSLL32:    "dsll32",
	DSLLV:     "dsllv",
	DSRA:      "dsra",
	DSRA32:    "dsra32",
	DSRAV:     "dsrav",
	DSRL:      "dsrl",
	DSRL32:    "dsrl32",
	DSRLV:     "dsrlv",
	DSUB:      "dsub",
	DSUBU:     "dsubu",
	EHB:       "ehb",
	EI:        "ei",
	ERET:      "eret",
	EXT:       "ext",
	FLOOR_L_D: "floor.l.d",
	FLOOR_L_S: "floor.l.s",
	FLOOR_W_D: "floor.w.d",
	FLOOR_W_S: "floor.w.s",
	INS:       "ins",
	J:         "j",
	JAL:       "jal",
	JALR:      "jalr",
	JR:        "jr",
	LB:        "lb",
	LBU:       "lbu",
	LD:        "ld",
	LDC1:      "ldc1",
	LDL:       "ldl",
	LDR:       "ldr",
	LH:        "lh",
	LHU:       "lhu",
	LL:        "ll",
	LLD:       "lld",
	LUI:       "lui",
	LW:        "lw",
	LWC1:      "lwc1",
	LWL:       "lwl",
	LWR:       "lwr",
	LWU:       "lwu",
	MADD:      "madd",
	MADDU:     "maddu",
	MFC0:      "mfc0",
	MFC1:      "mfc1",
	MFHC1:     "mfhc1",
	MFHI:      "mfhi",
	MFLO:      "mflo",
	MOV_D:     "mov.d",
	MOV_S:     "mov.s",
	MOVE:      "move",
	MOVF:      "movf",
	MOVF_D:    "movf.d",
	MOVF_S:    "movf.s",
	MOVN:      "movn",
	MOVN_D:    "movn.d",
	MOVN_S:    "movn.s",
	MOVT:      "movt",
	MOVT_D:    "movt.d",
	MOVT_S:    "movt.s",
	MOVZ:      "movz",
	MOVZ_D:    "movz.d",
	MOVZ_S:    "movz.s",
	MSUB:      "msub",
	MSUBU:     "msubu",
	MTC0:      "mtc0",
	MTC1:      "mtc1",
	MTHC1:     "mthc1",
	MTHI:      "mthi",
	MTLO:      "mtlo",
	MUL:       "mul",
	MUL_D:     "mul.d",
	MUL_S:     "mul.s",
	MULT:      "mult",
	MULTU:     "multu",
	NEG_D:     "neg.d",
	NEG_S:     "neg.s",
	NEGU:      "negu",
	NOP:       "nop",
	NOR:       "nor",
	NOT:       "not",
	OR:        "or",
	ORI:       "ori",
	PREF:      "pref",
	RDHWR:     "rdhwr",
	ROTR:      "rotr",
	ROTRV:     "rotrv",
	ROUND_L_D: "round.l.d",
	ROUND_L_S: "round.l.s",
	ROUND_W_D: "round.w.d",
	ROUND_W_S: "round.w.s",
	SB:        "sb",
	SC:        "sc",
	SCD:       "scd",
	SD:        "sd",
	SDBBP:     "sdbbp",
	SDC1:      "sdc1",
	SDL:       "sdl",
	SDR:       "sdr",
	SEB:       "seb",
	SEH:       "seh",
	SH:        "sh",
	SLL:       "sll",
	SLLV:      "sllv",
	SLT:       "slt",
	SLTI:      "slti",
	SLTIU:     "sltiu",
	SLTU:      "sltu",
	SQRT_D:    "sqrt.d",
	SQRT_S:    "sqrt.s",
	SRA:       "sra",
	SRAV:      "srav",
	SRL:       "srl",
	SRLV:      "srlv",
	SSNOP:     "ssnop",
	SUB:       "sub",
	SUB_D:     "sub.d",
	SUB_S:     "sub.s",
	SUBU:      "subu",
	SW:        "sw",
	SWC1:      "swc1",
	SWL:       "swl",
	SWR:       "swr",
	SYNC:      "sync",
	SYNCI:     "synci",
	SYSCALL:   "syscall",
	TEQ:       "teq",
	TEQI:      "teqi",
	TGE:       "tge",
	TGEI:      "tgei",
	TGEIU:     "tgeiu",
	TGEU:      "tgeu",
	TLBP:      "tlbp",
	TLBR:      "tlbr",
	TLBWI:     "tlbwi",
	TLBWR:     "tlbwr",
	TLT:       "tlt",
	TLTI:      "tlti",
	TLTIU:     "tltiu",
	TLTU:      "tltu",
	TNE:       "tne",
	TNEI:      "tnei",
	TRUNC_L_D: "trunc.l.d",
	TRUNC_L_S: "trunc.l.s",
	TRUNC_W_D: "trunc.w.d",
	TRUNC_W_S: "trunc.w.s",
	WAIT:      "wait",
	WSBH:      "wsbh",
	XOR:       "xor",
	XORI:      "xori",
}

var fpConds = [16]string{
	"f", "un", "eq", "ueq", "olt", "ult", "ole", "ule",
	"sf", "ngle", "seq", "ngl", "lt", "nge", "le", "ngt",
}

func init() {
	for i, c := range fpConds {
		opNames[C_F_S+Op(i)] = "c." + c + ".s"
		opNames[C_F_D+Op(i)] = "c." + c + ".d"
	}
}

func (op Op) String() string {
	if op < opMax && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

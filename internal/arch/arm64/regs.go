package arm64

import (
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// Register ids are arm64asm.Reg plus one. The stack pointers share an
// encoding with the zero registers in arm64asm, so they and the flags get
// ids of their own.
const (
	RegInvalid uint = 0
	RegW0           = uint(arm64asm.W0) + 1
	RegWZR          = uint(arm64asm.WZR) + 1
	RegX0           = uint(arm64asm.X0) + 1
	RegFP           = uint(arm64asm.X29) + 1
	RegLR           = uint(arm64asm.X30) + 1
	RegXZR          = uint(arm64asm.XZR) + 1
	RegB0           = uint(arm64asm.B0) + 1
	RegH0           = uint(arm64asm.H0) + 1
	RegS0           = uint(arm64asm.S0) + 1
	RegD0           = uint(arm64asm.D0) + 1
	RegQ0           = uint(arm64asm.Q0) + 1
	RegV0           = uint(arm64asm.V0) + 1
	regLibMax       = uint(arm64asm.V31) + 1

	RegNZCV uint = 0x1000
	RegSP   uint = 0x1001
	RegWSP  uint = 0x1002
)

func libReg(r arm64asm.Reg) uint { return uint(r) + 1 }

func libRegSP(r arm64asm.RegSP) uint {
	switch arm64asm.Reg(r) {
	case arm64asm.SP:
		return RegSP
	case arm64asm.WSP:
		return RegWSP
	}
	return libReg(arm64asm.Reg(r))
}

// byName maps lower-case register names back to ids, for the argument
// types whose fields arm64asm does not export.
var byName = map[string]uint{"sp": RegSP, "wsp": RegWSP}

func init() {
	for r := arm64asm.W0; r <= arm64asm.V31; r++ {
		byName[strings.ToLower(r.String())] = libReg(r)
	}
}

func regName(id uint) (string, bool) {
	switch id {
	case RegNZCV:
		return "nzcv", true
	case RegSP:
		return "sp", true
	case RegWSP:
		return "wsp", true
	}
	if id == RegInvalid || id > regLibMax {
		return "", false
	}
	return strings.ToLower(arm64asm.Reg(id - 1).String()), true
}

package arm

import (
	"fmt"

	"golang.org/x/arch/arm/armasm"
)

// Register ids are armasm.Reg plus one, leaving zero as the invalid id.
const (
	RegInvalid uint = 0
	RegR0           = uint(armasm.R0) + 1
	RegSB           = uint(armasm.R9) + 1
	RegSL           = uint(armasm.R10) + 1
	RegFP           = uint(armasm.R11) + 1
	RegIP           = uint(armasm.R12) + 1
	RegSP           = uint(armasm.SP) + 1
	RegLR           = uint(armasm.LR) + 1
	RegPC           = uint(armasm.PC) + 1
	RegS0           = uint(armasm.S0) + 1
	RegD0           = uint(armasm.D0) + 1
	RegAPSR         = uint(armasm.APSR) + 1
	RegAPSRNZCV     = uint(armasm.APSR_nzcv) + 1
	RegFPSCR        = uint(armasm.FPSCR) + 1

	// RegCPSR is the flags register implied by conditional and
	// flag-setting instructions.
	RegCPSR uint = 0x1000
)

func libReg(r armasm.Reg) uint { return uint(r) + 1 }

var coreNames = [16]string{
	"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
	"r8", "sb", "sl", "fp", "ip", "sp", "lr", "pc",
}

// regName returns the assembler name of id. With numeric set the core
// registers print as r0-r15.
func regName(id uint, numeric bool) (string, bool) {
	switch {
	case id >= RegR0 && id <= RegPC:
		if numeric {
			return fmt.Sprintf("r%d", id-RegR0), true
		}
		return coreNames[id-RegR0], true
	case id >= RegS0 && id < RegS0+32:
		return fmt.Sprintf("s%d", id-RegS0), true
	case id >= RegD0 && id < RegD0+32:
		return fmt.Sprintf("d%d", id-RegD0), true
	case id == RegAPSR:
		return "apsr", true
	case id == RegAPSRNZCV:
		return "apsr_nzcv", true
	case id == RegFPSCR:
		return "fpscr", true
	case id == RegCPSR:
		return "cpsr", true
	}
	return "", false
}

func regText(r armasm.Reg, numeric bool) string {
	name, ok := regName(libReg(r), numeric)
	if !ok {
		return fmt.Sprintf("reg%d", r)
	}
	return name
}

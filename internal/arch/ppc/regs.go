package ppc

import (
	"fmt"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// Register ids below regLibMax are ppc64asm.Reg values. The condition
// register and special purpose registers live in their own ranges.
const (
	RegInvalid uint = 0
	RegR0           = uint(ppc64asm.R0)
	RegF0           = uint(ppc64asm.F0)
	RegV0           = uint(ppc64asm.V0)
	RegVS0          = uint(ppc64asm.VS0)
	RegA0           = uint(ppc64asm.A0)
	regLibMax       = uint(ppc64asm.A7)

	// RegCR is the whole condition register. Adding a ppc64asm.CondReg
	// gives a CR bit or field.
	RegCR  uint = 0x1000
	RegCR0      = RegCR + uint(ppc64asm.CR0)
	regCRMax    = RegCR + uint(ppc64asm.CR7)

	// SPR n is regSPR+n.
	regSPR    uint = 0x2000
	RegXER         = regSPR + 1
	RegLR          = regSPR + 8
	RegCTR         = regSPR + 9
	RegTB          = regSPR + 268
	RegTAR         = regSPR + 815
	regSPRMax      = regSPR + 1023

	RegMSR uint = 0x3000
)

var sprNames = map[uint]string{
	RegXER: "xer",
	RegLR:  "lr",
	RegCTR: "ctr",
	RegTB:  "tb",
	RegTAR: "tar",
}

var condBits = [4]string{"lt", "gt", "eq", "so"}

func regName(id uint) (string, bool) {
	switch {
	case id == RegInvalid:
		return "", false
	case id <= regLibMax:
		return ppc64asm.Reg(id).String(), true
	case id == RegCR:
		return "cr", true
	case id >= RegCR0 && id <= regCRMax:
		return fmt.Sprintf("cr%d", int(id-RegCR0)), true
	case id > RegCR && id < RegCR0:
		bit := int(id - RegCR - 1)
		return fmt.Sprintf("cr%d%s", bit/4, condBits[bit%4]), true
	case id >= regSPR && id <= regSPRMax:
		if name, ok := sprNames[id]; ok {
			return name, true
		}
		return fmt.Sprintf("spr%d", int(id-regSPR)), true
	case id == RegMSR:
		return "msr", true
	}
	return "", false
}

// condReg maps a CR bit or field argument to its register id.
func condReg(c ppc64asm.CondReg) uint { return RegCR + uint(c) }

// crField returns the field a CR bit belongs to.
func crField(c ppc64asm.CondReg) uint {
	if c >= ppc64asm.CR0 {
		return condReg(c)
	}
	return RegCR0 + uint(c-ppc64asm.Cond0LT)/4
}

func sprReg(s ppc64asm.SpReg) uint { return regSPR + uint(s) }

package mips

import "fmt"

// Register ids. GPRs are numbered from one so that the zero id stays
// invalid across every architecture.
const (
	RegInvalid uint = iota
	RegZero
	RegAT
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA

	RegF0 // RegF0 + n is $fn
	regFLast = RegF0 + 31

	RegHI = regFLast + 1
	RegLO = regFLast + 2

	RegFCC0 = RegLO + 1 // RegFCC0 + n is $fccn
	RegPC   = RegFCC0 + 8

	regMax = RegPC
)

var gprNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func gpr(n uint32) uint { return RegZero + uint(n&31) }
func fpr(n uint32) uint { return RegF0 + uint(n&31) }
func fcc(n uint32) uint { return RegFCC0 + uint(n&7) }

func regName(id uint) (string, bool) {
	switch {
	case id >= RegZero && id <= RegRA:
		return gprNames[id-RegZero], true
	case id >= RegF0 && id <= regFLast:
		return fmt.Sprintf("f%d", id-RegF0), true
	case id == RegHI:
		return "hi", true
	case id == RegLO:
		return "lo", true
	case id >= RegFCC0 && id < RegFCC0+8:
		return fmt.Sprintf("fcc%d", id-RegFCC0), true
	case id == RegPC:
		return "pc", true
	}
	return "", false
}

// regText renders a register operand. Numeric mode only changes GPRs.
func regText(id uint, numeric bool) string {
	if numeric && id >= RegZero && id <= RegRA {
		return fmt.Sprintf("$%d", id-RegZero)
	}
	name, _ := regName(id)
	return "$" + name
}

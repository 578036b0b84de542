package x86

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// Register ids are x86asm.Reg values, which leave zero free for "no
// register". EFLAGS has no x86asm counterpart and sits above them.
const (
	RegInvalid uint = 0
	RegAL           = uint(x86asm.AL)
	RegAX           = uint(x86asm.AX)
	RegEAX          = uint(x86asm.EAX)
	RegRAX          = uint(x86asm.RAX)
	RegIP           = uint(x86asm.IP)
	RegEIP          = uint(x86asm.EIP)
	RegRIP          = uint(x86asm.RIP)
	RegST0          = uint(x86asm.F0)
	RegMM0          = uint(x86asm.M0)
	RegXMM0         = uint(x86asm.X0)
	RegES           = uint(x86asm.ES)
	RegCR0          = uint(x86asm.CR0)
	RegDR0          = uint(x86asm.DR0)
	RegTR0          = uint(x86asm.TR0)
	regLibMax       = uint(x86asm.TR7)

	RegEFLAGS uint = 0x100
)

// Width-neutral stand-ins used by the effect tables. They are resolved
// against the decode mode, address size or operand size before a record
// is built.
const (
	symSP uint = 0x200 + iota
	symBP
	symIP
	symAX
	symCX
	symDX
	symBX
	symSI
	symDI
)

func regName(id uint) (string, bool) {
	if id == RegEFLAGS {
		return "eflags", true
	}
	if id == RegInvalid || id > regLibMax {
		return "", false
	}
	r := x86asm.Reg(id)
	switch {
	case x86asm.F0 <= r && r <= x86asm.F7:
		return fmt.Sprintf("st%d", int(r-x86asm.F0)), true
	case x86asm.M0 <= r && r <= x86asm.M7:
		return fmt.Sprintf("mmx%d", int(r-x86asm.M0)), true
	case x86asm.X0 <= r && r <= x86asm.X15:
		return fmt.Sprintf("xmm%d", int(r-x86asm.X0)), true
	case x86asm.R8L <= r && r <= x86asm.R15L:
		return fmt.Sprintf("r%dd", 8+int(r-x86asm.R8L)), true
	}
	switch r {
	case x86asm.SPB:
		return "spl", true
	case x86asm.BPB:
		return "bpl", true
	case x86asm.SIB:
		return "sil", true
	case x86asm.DIB:
		return "dil", true
	}
	return strings.ToLower(r.String()), true
}

// regBytes is the width of a general purpose or vector register.
func regBytes(r x86asm.Reg) uint8 {
	switch {
	case x86asm.AL <= r && r <= x86asm.R15B:
		return 1
	case x86asm.AX <= r && r <= x86asm.R15W, x86asm.IP == r, x86asm.ES <= r && r <= x86asm.GS:
		return 2
	case x86asm.EAX <= r && r <= x86asm.R15L, x86asm.EIP == r:
		return 4
	case x86asm.RAX <= r && r <= x86asm.R15, x86asm.RIP == r, x86asm.M0 <= r && r <= x86asm.M7:
		return 8
	case x86asm.F0 <= r && r <= x86asm.F7:
		return 10
	case x86asm.X0 <= r && r <= x86asm.X15:
		return 16
	}
	return 0
}

// bySize picks the 16, 32 or 64-bit member of a register family.
func bySize(bits int, r16, r32, r64 x86asm.Reg) uint {
	switch bits {
	case 16:
		return uint(r16)
	case 64:
		return uint(r64)
	}
	return uint(r32)
}

// resolve replaces the stand-ins with concrete registers. The stack and
// instruction pointers follow the processor mode, the string registers
// the address size and the accumulator pair the operand size.
func resolve(ids []uint, inst *x86asm.Inst) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		switch id {
		case symSP:
			id = bySize(inst.Mode, x86asm.SP, x86asm.ESP, x86asm.RSP)
		case symBP:
			id = bySize(inst.Mode, x86asm.BP, x86asm.EBP, x86asm.RBP)
		case symIP:
			id = bySize(inst.Mode, x86asm.IP, x86asm.EIP, x86asm.RIP)
		case symCX:
			id = bySize(inst.AddrSize, x86asm.CX, x86asm.ECX, x86asm.RCX)
		case symSI:
			id = bySize(inst.AddrSize, x86asm.SI, x86asm.ESI, x86asm.RSI)
		case symDI:
			id = bySize(inst.AddrSize, x86asm.DI, x86asm.EDI, x86asm.RDI)
		case symAX:
			id = bySize(inst.DataSize, x86asm.AX, x86asm.EAX, x86asm.RAX)
		case symDX:
			id = bySize(inst.DataSize, x86asm.DX, x86asm.EDX, x86asm.RDX)
		case symBX:
			id = bySize(inst.DataSize, x86asm.BX, x86asm.EBX, x86asm.RBX)
		}
		out = append(out, id)
	}
	return out
}

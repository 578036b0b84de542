package arm

import (
	"fmt"

	"golang.org/x/arch/arm/armasm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// ThumbBase offsets Thumb instruction ids so they never collide with the
// A32 ids, which are armasm opcodes.
const ThumbBase = 0x8000

type tOp uint16

const (
	tADCS tOp = iota + 1
	tADD
	tADDS
	tADR
	tANDS
	tASRS
	tB
	tBICS
	tBKPT
	tBL
	tBLX
	tBX
	tCBNZ
	tCBZ
	tCMN
	tCMP
	tCPSID
	tCPSIE
	tEORS
	tIT
	tLDM
	tLDR
	tLDRB
	tLDRH
	tLDRSB
	tLDRSH
	tLSLS
	tLSRS
	tMOV
	tMOVS
	tMULS
	tMVNS
	tNOP
	tORRS
	tPOP
	tPUSH
	tREV
	tREV16
	tREVSH
	tRORS
	tRSBS
	tSBCS
	tSEV
	tSTM
	tSTR
	tSTRB
	tSTRH
	tSUB
	tSUBS
	tSVC
	tSXTB
	tSXTH
	tTST
	tUDF
	tUXTB
	tUXTH
	tWFE
	tWFI
	tYIELD
	tMax
)

type tInfo struct {
	name  string
	shape shape
	flags bool
	eff   arch.Effects
}

var (
	branchRel = arch.Effects{Groups: arch.Groups(disasm.GroupJump, disasm.GroupBranchRelative)}
	callRel   = arch.Effects{Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall, disasm.GroupBranchRelative)}
	privilege = arch.Effects{Groups: arch.Groups(disasm.GroupPrivilege)}
)

var thumbOps = [tMax]tInfo{
	tADCS:  {"adcs", shapeDest, true, flagsRead},
	tADD:   {"add", shapeDest, false, arch.Effects{}},
	tADDS:  {"adds", shapeDest, true, arch.Effects{}},
	tADR:   {"adr", shapeDest, false, arch.Effects{}},
	tANDS:  {"ands", shapeDest, true, arch.Effects{}},
	tASRS:  {"asrs", shapeDest, true, arch.Effects{}},
	tB:     {"b", shapeNoDest, false, branchRel},
	tBICS:  {"bics", shapeDest, true, arch.Effects{}},
	tBKPT:  {"bkpt", shapeNoDest, false, arch.Effects{Groups: arch.Groups(disasm.GroupInt)}},
	tBL:    {"bl", shapeNoDest, false, callRel},
	tBLX:   {"blx", shapeNoDest, false, arch.Effects{Write: arch.Regs(RegLR), Groups: arch.Groups(disasm.GroupCall)}},
	tBX:    {"bx", shapeNoDest, false, arch.Effects{Groups: arch.Groups(disasm.GroupJump)}},
	tCBNZ:  {"cbnz", shapeNoDest, false, branchRel},
	tCBZ:   {"cbz", shapeNoDest, false, branchRel},
	tCMN:   {"cmn", shapeNoDest, true, arch.Effects{}},
	tCMP:   {"cmp", shapeNoDest, true, arch.Effects{}},
	tCPSID: {"cpsid", shapeNoDest, false, privilege},
	tCPSIE: {"cpsie", shapeNoDest, false, privilege},
	tEORS:  {"eors", shapeDest, true, arch.Effects{}},
	tIT:    {"it", shapeNoDest, false, arch.Effects{}},
	tLDM:   {"ldm", shapeLoadMulti, false, arch.Effects{}},
	tLDR:   {"ldr", shapeLoad, false, arch.Effects{}},
	tLDRB:  {"ldrb", shapeLoad, false, arch.Effects{}},
	tLDRH:  {"ldrh", shapeLoad, false, arch.Effects{}},
	tLDRSB: {"ldrsb", shapeLoad, false, arch.Effects{}},
	tLDRSH: {"ldrsh", shapeLoad, false, arch.Effects{}},
	tLSLS:  {"lsls", shapeDest, true, arch.Effects{}},
	tLSRS:  {"lsrs", shapeDest, true, arch.Effects{}},
	tMOV:   {"mov", shapeDest, false, arch.Effects{}},
	tMOVS:  {"movs", shapeDest, true, arch.Effects{}},
	tMULS:  {"muls", shapeDest, true, arch.Effects{}},
	tMVNS:  {"mvns", shapeDest, true, arch.Effects{}},
	tNOP:   {"nop", shapeNoDest, false, arch.Effects{}},
	tORRS:  {"orrs", shapeDest, true, arch.Effects{}},
	tPOP:   {"pop", shapeLoadMulti, false, stackOp},
	tPUSH:  {"push", shapeStoreMulti, false, stackOp},
	tREV:   {"rev", shapeDest, false, arch.Effects{}},
	tREV16: {"rev16", shapeDest, false, arch.Effects{}},
	tREVSH: {"revsh", shapeDest, false, arch.Effects{}},
	tRORS:  {"rors", shapeDest, true, arch.Effects{}},
	tRSBS:  {"rsbs", shapeDest, true, arch.Effects{}},
	tSBCS:  {"sbcs", shapeDest, true, flagsRead},
	tSEV:   {"sev", shapeNoDest, false, arch.Effects{}},
	tSTM:   {"stm", shapeStoreMulti, false, arch.Effects{}},
	tSTR:   {"str", shapeStore, false, arch.Effects{}},
	tSTRB:  {"strb", shapeStore, false, arch.Effects{}},
	tSTRH:  {"strh", shapeStore, false, arch.Effects{}},
	tSUB:   {"sub", shapeDest, false, arch.Effects{}},
	tSUBS:  {"subs", shapeDest, true, arch.Effects{}},
	tSVC:   {"svc", shapeNoDest, false, arch.Effects{Groups: arch.Groups(disasm.GroupInt)}},
	tSXTB:  {"sxtb", shapeDest, false, arch.Effects{}},
	tSXTH:  {"sxth", shapeDest, false, arch.Effects{}},
	tTST:   {"tst", shapeNoDest, true, arch.Effects{}},
	tUDF:   {"udf", shapeNoDest, false, arch.Effects{}},
	tUXTB:  {"uxtb", shapeDest, false, arch.Effects{}},
	tUXTH:  {"uxth", shapeDest, false, arch.Effects{}},
	tWFE:   {"wfe", shapeNoDest, false, arch.Effects{}},
	tWFI:   {"wfi", shapeNoDest, false, arch.Effects{}},
	tYIELD: {"yield", shapeNoDest, false, arch.Effects{}},
}

func thumbName(id uint) (string, bool) {
	if id <= ThumbBase || id >= ThumbBase+uint(tMax) {
		return "", false
	}
	return thumbOps[id-ThumbBase].name, true
}

// condNames follows the ARMCond numbering.
var condNames = [...]string{
	disasm.ARMCondEQ: "eq", disasm.ARMCondNE: "ne", disasm.ARMCondHS: "cs", disasm.ARMCondLO: "cc",
	disasm.ARMCondMI: "mi", disasm.ARMCondPL: "pl", disasm.ARMCondVS: "vs", disasm.ARMCondVC: "vc",
	disasm.ARMCondHI: "hi", disasm.ARMCondLS: "ls", disasm.ARMCondGE: "ge", disasm.ARMCondLT: "lt",
	disasm.ARMCondGT: "gt", disasm.ARMCondLE: "le", disasm.ARMCondAL: "al",
}

// itCond is the condition operand of an IT instruction.
type itCond uint

func (itCond) IsArg()           {}
func (c itCond) String() string { return condNames[c] }

// iflags is the a/i/f operand of CPS.
type iflags uint8

func (iflags) IsArg() {}

func (f iflags) String() string {
	s := ""
	for i, c := range "aif" {
		if f&(4>>i) != 0 {
			s += string(c)
		}
	}
	return s
}

func (op tOp) build(size int, args ...armasm.Arg) *insn {
	info := thumbOps[op]
	return &insn{
		id:       ThumbBase + uint(op),
		size:     size,
		mnemonic: info.name,
		args:     args,
		cond:     disasm.ARMCondAL,
		setFlags: info.flags,
		shape:    info.shape,
		eff:      info.eff,
		bx:       op == tBX || op == tBLX,
	}
}

// r extracts a low register field.
func r(n uint16) armasm.Reg { return armasm.Reg(n & 7) }

func imm(v uint32) armasm.Imm { return armasm.Imm(v) }

func sext(v uint32, bits uint) int32 { return int32(v<<(32-bits)) >> (32 - bits) }

func offMem(base armasm.Reg, off uint32) armasm.Mem {
	return armasm.Mem{Base: base, Mode: armasm.AddrOffset, Offset: int16(off)}
}

// decodeThumb decodes one Thumb instruction: the 16-bit set plus the
// 32-bit BL and BLX pair. Other 32-bit Thumb-2 encodings are invalid.
func decodeThumb(code []byte, addr uint64, mode disasm.Mode) (*insn, error) {
	if len(code) < 2 {
		return nil, arch.ErrShort
	}
	order := arch.ByteOrder(mode)
	hw := order.Uint16(code)
	switch hw >> 11 {
	case 0b11101, 0b11110, 0b11111:
		if len(code) < 4 {
			return nil, arch.ErrShort
		}
		return thumbBL(hw, order.Uint16(code[2:]), addr)
	}
	in := thumb16(hw, uint32(addr))
	if in == nil {
		return nil, arch.ErrInvalid
	}
	return in, nil
}

func thumbBL(hw1, hw2 uint16, addr uint64) (*insn, error) {
	if hw1>>11 != 0b11110 || hw2&0xC000 != 0xC000 {
		return nil, arch.ErrInvalid
	}
	s := uint32(hw1>>10) & 1
	j1 := uint32(hw2>>13) & 1
	j2 := uint32(hw2>>11) & 1
	i1 := ^(j1 ^ s) & 1
	i2 := ^(j2 ^ s) & 1
	imm := s<<24 | i1<<23 | i2<<22 | uint32(hw1&0x3FF)<<12 | uint32(hw2&0x7FF)<<1
	off := sext(imm, 25)
	pc := uint32(addr) + 4

	if hw2&0x1000 != 0 {
		return tBL.build(4, target(pc+uint32(off))), nil
	}
	if hw2&1 != 0 {
		return nil, arch.ErrInvalid
	}
	in := tBLX.build(4, target((pc&^3)+uint32(off)))
	in.eff = callRel
	return in, nil
}

func thumb16(hw uint16, addr uint32) *insn {
	pc := addr + 4
	rd := r(hw)
	rm := r(hw >> 3)
	rn := r(hw >> 6)
	// Register fields sit at bits 0, 3 and 6 in most formats; which one is
	// the base or index depends on the format.

	switch {
	case hw>>13 == 0 && (hw>>11)&3 != 3:
		n := uint32(hw>>6) & 31
		switch (hw >> 11) & 3 {
		case 0:
			if n == 0 {
				return tMOVS.build(2, rd, rm)
			}
			return tLSLS.build(2, rd, rm, imm(n))
		case 1:
			if n == 0 {
				n = 32
			}
			return tLSRS.build(2, rd, rm, imm(n))
		default:
			if n == 0 {
				n = 32
			}
			return tASRS.build(2, rd, rm, imm(n))
		}

	case hw>>11 == 0b00011:
		op := tADDS
		if hw&0x0200 != 0 {
			op = tSUBS
		}
		if hw&0x0400 != 0 {
			return op.build(2, rd, rm, imm(uint32(hw>>6)&7))
		}
		return op.build(2, rd, rm, rn)

	case hw>>13 == 0b001:
		rdn := r(hw >> 8 & 7)
		v := imm(uint32(hw) & 0xFF)
		return [...]tOp{tMOVS, tCMP, tADDS, tSUBS}[(hw>>11)&3].build(2, rdn, v)

	case hw>>10 == 0b010000:
		ops := [...]tOp{
			tANDS, tEORS, tLSLS, tLSRS, tASRS, tADCS, tSBCS, tRORS,
			tTST, tRSBS, tCMP, tCMN, tORRS, tMULS, tBICS, tMVNS,
		}
		switch op := ops[(hw>>6)&15]; op {
		case tRSBS:
			return op.build(2, rd, rm, imm(0))
		case tMULS:
			return op.build(2, rd, rm, rd)
		default:
			return op.build(2, rd, rm)
		}

	case hw>>10 == 0b010001:
		rdn := armasm.Reg((hw>>7)&1<<3 | hw&7)
		rs := armasm.Reg(hw>>3) & 15
		switch (hw >> 8) & 3 {
		case 0:
			return tADD.build(2, rdn, rs)
		case 1:
			return tCMP.build(2, rdn, rs)
		case 2:
			return tMOV.build(2, rdn, rs)
		}
		if hw&7 != 0 {
			return nil
		}
		if hw&0x80 != 0 {
			return tBLX.build(2, rs)
		}
		return tBX.build(2, rs)

	case hw>>11 == 0b01001:
		return tLDR.build(2, r(hw>>8&7), offMem(armasm.PC, uint32(hw&0xFF)<<2))

	case hw>>12 == 0b0101:
		ops := [...]tOp{tSTR, tSTRH, tSTRB, tLDRSB, tLDR, tLDRH, tLDRB, tLDRSH}
		m := armasm.Mem{Base: rm, Mode: armasm.AddrOffset, Sign: 1, Index: rn}
		return ops[(hw>>9)&7].build(2, rd, m)

	case hw>>13 == 0b011:
		n := uint32(hw>>6) & 31
		switch (hw >> 11) & 3 {
		case 0:
			return tSTR.build(2, rd, offMem(rm, n<<2))
		case 1:
			return tLDR.build(2, rd, offMem(rm, n<<2))
		case 2:
			return tSTRB.build(2, rd, offMem(rm, n))
		default:
			return tLDRB.build(2, rd, offMem(rm, n))
		}

	case hw>>12 == 0b1000:
		n := uint32(hw>>6) & 31
		if hw&0x0800 != 0 {
			return tLDRH.build(2, rd, offMem(rm, n<<1))
		}
		return tSTRH.build(2, rd, offMem(rm, n<<1))

	case hw>>12 == 0b1001:
		rt := r(hw >> 8 & 7)
		m := offMem(armasm.SP, uint32(hw&0xFF)<<2)
		if hw&0x0800 != 0 {
			return tLDR.build(2, rt, m)
		}
		return tSTR.build(2, rt, m)

	case hw>>12 == 0b1010:
		v := imm(uint32(hw&0xFF) << 2)
		if hw&0x0800 != 0 {
			return tADD.build(2, r(hw>>8&7), armasm.SP, v)
		}
		return tADR.build(2, r(hw>>8&7), v)

	case hw>>12 == 0b1011:
		return thumbMisc(hw, pc)

	case hw>>12 == 0b1100:
		base := r(hw >> 8 & 7)
		list := armasm.RegList(hw & 0xFF)
		if list == 0 {
			return nil
		}
		mode := armasm.AddrLDM_WB
		if hw&0x0800 != 0 {
			if list&(1<<base) != 0 {
				mode = armasm.AddrLDM
			}
			return tLDM.build(2, armasm.Mem{Base: base, Mode: mode}, list)
		}
		return tSTM.build(2, armasm.Mem{Base: base, Mode: mode}, list)

	case hw>>12 == 0b1101:
		cond := uint32(hw>>8) & 15
		switch cond {
		case 14:
			return tUDF.build(2, imm(uint32(hw&0xFF)))
		case 15:
			return tSVC.build(2, imm(uint32(hw&0xFF)))
		}
		in := tB.build(2, target(pc+uint32(sext(uint32(hw&0xFF), 8)<<1)))
		in.cond = uint(cond) + 1
		in.mnemonic = "b" + condNames[in.cond]
		return in

	case hw>>11 == 0b11100:
		return tB.build(2, target(pc+uint32(sext(uint32(hw&0x7FF), 11)<<1)))
	}
	return nil
}

// thumbMisc decodes the 1011 space: stack adjustment, extends, push and
// pop, cbz, cps, byte reversal, bkpt, hints and IT.
func thumbMisc(hw uint16, pc uint32) *insn {
	rd := r(hw)
	rm := r(hw >> 3)
	switch {
	case hw&0xFF00 == 0xB000:
		v := imm(uint32(hw&0x7F) << 2)
		if hw&0x80 != 0 {
			return tSUB.build(2, armasm.SP, v)
		}
		return tADD.build(2, armasm.SP, v)

	case hw&0xFF00 == 0xB200:
		return [...]tOp{tSXTH, tSXTB, tUXTH, tUXTB}[(hw>>6)&3].build(2, rd, rm)

	case hw&0xF500 == 0xB100:
		off := uint32(hw>>9)&1<<6 | uint32(hw>>3)&31<<1
		op := tCBZ
		if hw&0x0800 != 0 {
			op = tCBNZ
		}
		return op.build(2, rd, target(pc+off))

	case hw&0xFE00 == 0xB400:
		list := armasm.RegList(hw & 0xFF)
		if hw&0x100 != 0 {
			list |= 1 << armasm.LR
		}
		if list == 0 {
			return nil
		}
		return tPUSH.build(2, list)

	case hw&0xFE00 == 0xBC00:
		list := armasm.RegList(hw & 0xFF)
		if hw&0x100 != 0 {
			list |= 1 << armasm.PC
		}
		if list == 0 {
			return nil
		}
		return tPOP.build(2, list)

	case hw&0xFFE8 == 0xB660:
		f := iflags(hw & 7)
		if f == 0 {
			return nil
		}
		if hw&0x10 != 0 {
			return tCPSID.build(2, f)
		}
		return tCPSIE.build(2, f)

	case hw&0xFF00 == 0xBA00:
		switch (hw >> 6) & 3 {
		case 0:
			return tREV.build(2, rd, rm)
		case 1:
			return tREV16.build(2, rd, rm)
		case 3:
			return tREVSH.build(2, rd, rm)
		}
		return nil

	case hw&0xFF00 == 0xBE00:
		return tBKPT.build(2, imm(uint32(hw&0xFF)))

	case hw&0xFF00 == 0xBF00:
		first, mask := uint32(hw>>4)&15, uint32(hw)&15
		if mask == 0 {
			hints := [...]tOp{tNOP, tYIELD, tWFE, tWFI, tSEV}
			if first >= uint32(len(hints)) {
				return nil
			}
			return hints[first].build(2)
		}
		if first == 15 || (first == 14 && mask&(mask-1) != 0) {
			return nil
		}
		in := tIT.build(2, itCond(first+1))
		in.mnemonic = itMnemonic(first, mask)
		return in
	}
	return nil
}

// itMnemonic spells out the then/else pattern of an IT block, e.g. "itte".
func itMnemonic(first, mask uint32) string {
	s := "it"
	stop := 0
	for mask&(1<<stop) == 0 {
		stop++
	}
	for bit := 3; bit > stop; bit-- {
		if (mask>>bit)&1 == first&1 {
			s += "t"
		} else {
			s += "e"
		}
	}
	return s
}

func init() {
	for op := tOp(1); op < tMax; op++ {
		if thumbOps[op].name == "" {
			panic(fmt.Sprintf("arm: thumb op %d has no name", op))
		}
	}
}

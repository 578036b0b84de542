package arm64

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// Several arm64asm argument types keep their fields unexported; their
// String forms are parsed instead.
var (
	memImmRe   = regexp.MustCompile(`#(-?\d+)`)
	immShiftRe = regexp.MustCompile(`^#(0x[0-9a-f]+|\d+)(?:, (lsl|msl) #(\d+))?$`)
	extRe      = regexp.MustCompile(`^(\w+)(?:, (\w+)(?: #(\d+))?)?$`)
	vecRe      = regexp.MustCompile(`v(\d+)\.(\w+)`)
	vecIndexRe = regexp.MustCompile(`\[(\d+)\]$`)
)

var condCodes = map[string]uint{
	"eq": disasm.ARMCondEQ, "ne": disasm.ARMCondNE, "cs": disasm.ARMCondHS, "cc": disasm.ARMCondLO,
	"mi": disasm.ARMCondMI, "pl": disasm.ARMCondPL, "vs": disasm.ARMCondVS, "vc": disasm.ARMCondVC,
	"hi": disasm.ARMCondHI, "ls": disasm.ARMCondLS, "ge": disasm.ARMCondGE, "lt": disasm.ARMCondLT,
	"gt": disasm.ARMCondGT, "le": disasm.ARMCondLE, "al": disasm.ARMCondAL,
}

func memDisp(m arm64asm.MemImmediate) int64 {
	if s := memImmRe.FindStringSubmatch(m.String()); s != nil {
		v, _ := strconv.ParseInt(s[1], 10, 32)
		return v
	}
	return 0
}

func fpValue(f arm64asm.Imm_fp) float64 {
	v, _ := strconv.ParseFloat(strings.TrimPrefix(f.String(), "#"), 64)
	return v
}

// argText renders one argument, with absolute branch targets and a space
// after each comma inside memory operands.
func argText(a arm64asm.Arg, addr uint64) string {
	switch a := a.(type) {
	case arm64asm.PCRel:
		return "#" + arch.Addr(addr+uint64(a))
	case arm64asm.MemImmediate:
		base := strings.ToLower(a.Base.String())
		switch a.Mode {
		case arm64asm.AddrPreIndex:
			return fmt.Sprintf("[%s, #%s]!", base, arch.Imm(memDisp(a)))
		case arm64asm.AddrPostIndex:
			return fmt.Sprintf("[%s], #%s", base, arch.Imm(memDisp(a)))
		case arm64asm.AddrOffset:
			if d := memDisp(a); d != 0 {
				return fmt.Sprintf("[%s, #%s]", base, arch.Imm(d))
			}
			return "[" + base + "]"
		}
		return strings.ReplaceAll(strings.ToLower(a.String()), ",", ", ")
	case arm64asm.MemExtend:
		return strings.ReplaceAll(strings.ToLower(a.String()), ",", ", ")
	case arm64asm.Imm_fp:
		return "#" + strconv.FormatFloat(fpValue(a), 'f', -1, 64)
	}
	return strings.ToLower(a.String())
}

type builder struct {
	out     *disasm.ARM64Operands
	shape   shape
	regs    int
	seenMem bool
}

func (b *builder) access() uint8 {
	defer func() { b.regs++ }()
	switch b.shape {
	case shapeDest, shapeStoreExcl:
		if b.regs == 0 {
			return disasm.AccessWrite
		}
	case shapeLoad:
		if !b.seenMem {
			return disasm.AccessWrite
		}
	}
	return disasm.AccessRead
}

func (b *builder) memAccess() uint8 {
	if b.shape == shapeStore || b.shape == shapeStoreExcl {
		return disasm.AccessWrite
	}
	return disasm.AccessRead
}

func (b *builder) add(op disasm.ARM64Operand) { b.out.Operands = append(b.out.Operands, op) }

func (b *builder) reg(id uint) {
	b.add(disasm.ARM64Operand{Type: disasm.OpReg, Reg: id, Access: b.access()})
}

func (b *builder) arg(a arm64asm.Arg, addr uint64) {
	switch a := a.(type) {
	case arm64asm.Reg:
		b.reg(libReg(a))
	case arm64asm.RegSP:
		b.reg(libRegSP(a))
	case arm64asm.RegExtshiftAmount:
		m := extRe.FindStringSubmatch(strings.ToLower(a.String()))
		if m == nil {
			return
		}
		op := disasm.ARM64Operand{Type: disasm.OpReg, Reg: byName[m[1]], Access: b.access()}
		amount, _ := strconv.ParseUint(m[3], 10, 8)
		switch m[2] {
		case "":
		case "lsl", "lsr", "asr", "ror":
			op.Shift = disasm.Shift{Type: m[2], Value: uint(amount)}
		default:
			op.Ext = m[2]
			if amount != 0 {
				op.Shift = disasm.Shift{Type: "lsl", Value: uint(amount)}
			}
		}
		b.add(op)
	case arm64asm.ImmShift:
		m := immShiftRe.FindStringSubmatch(strings.ToLower(a.String()))
		if m == nil {
			return
		}
		v, _ := strconv.ParseInt(m[1], 0, 64)
		op := disasm.ARM64Operand{Type: disasm.OpImm, Imm: v}
		if m[2] != "" {
			n, _ := strconv.ParseUint(m[3], 10, 8)
			op.Shift = disasm.Shift{Type: m[2], Value: uint(n)}
		}
		b.add(op)
	case arm64asm.PCRel:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(addr + uint64(a))})
	case arm64asm.MemImmediate:
		b.seenMem = true
		mem := disasm.ARM64Mem{Base: libRegSP(a.Base)}
		switch a.Mode {
		case arm64asm.AddrPreIndex, arm64asm.AddrPostIndex:
			b.out.Writeback = true
			mem.Disp = int32(memDisp(a))
		case arm64asm.AddrOffset:
			mem.Disp = int32(memDisp(a))
		case arm64asm.AddrPostReg:
			b.out.Writeback = true
			if s := strings.Split(strings.ToLower(a.String()), ", "); len(s) == 2 {
				mem.Index = byName[s[1]]
			}
		}
		b.add(disasm.ARM64Operand{Type: disasm.OpMem, Mem: mem, Access: b.memAccess()})
	case arm64asm.MemExtend:
		b.seenMem = true
		op := disasm.ARM64Operand{
			Type:   disasm.OpMem,
			Mem:    disasm.ARM64Mem{Base: libRegSP(a.Base), Index: libReg(a.Index)},
			Access: b.memAccess(),
		}
		if ext := strings.ToLower(a.Extend.String()); ext != "" && ext != "lsl" {
			op.Ext = ext
		}
		if a.Amount != 0 {
			op.Shift = disasm.Shift{Type: "lsl", Value: uint(a.Amount)}
		}
		b.add(op)
	case arm64asm.Imm:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a.Imm)})
	case arm64asm.Imm64:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a.Imm)})
	case arm64asm.Imm_hint:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a)})
	case arm64asm.Imm_clrex:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a)})
	case arm64asm.Imm_dcps:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a)})
	case arm64asm.Imm_option:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a), Sys: strings.ToLower(a.String())})
	case arm64asm.Imm_prfop:
		b.add(disasm.ARM64Operand{Type: disasm.OpImm, Imm: int64(a), Sys: strings.ToLower(a.String())})
	case arm64asm.Imm_c:
		b.add(disasm.ARM64Operand{Type: disasm.OpCImm, Imm: int64(a)})
	case arm64asm.Imm_fp:
		b.add(disasm.ARM64Operand{Type: disasm.OpFP, FP: fpValue(a)})
	case arm64asm.Cond:
		cc := condCodes[strings.ToLower(a.String())]
		b.out.CC = cc
		b.add(disasm.ARM64Operand{Type: disasm.OpCond, Imm: int64(cc)})
	case arm64asm.Pstatefield:
		b.add(disasm.ARM64Operand{Type: disasm.OpSysReg, Sys: strings.ToLower(a.String())})
	case arm64asm.Systemreg:
		b.add(disasm.ARM64Operand{Type: disasm.OpSysReg, Sys: strings.ToLower(a.String()), Access: b.access()})
	case arm64asm.RegisterWithArrangement, arm64asm.RegisterWithArrangementAndIndex:
		b.vector(strings.ToLower(a.String()))
	default:
		if s := a.String(); s != "" {
			b.add(disasm.ARM64Operand{Type: disasm.OpSysReg, Sys: strings.ToLower(s)})
		}
	}
}

// vector expands a register or register list such as "v1.4s",
// "{v8.4h, v9.4h}", "{v15.16b-v17.16b}" or "v29.d[1]".
func (b *builder) vector(s string) {
	index := 0
	if m := vecIndexRe.FindStringSubmatch(s); m != nil {
		index, _ = strconv.Atoi(m[1])
	}
	regs := vecRe.FindAllStringSubmatch(s, -1)
	if len(regs) == 0 {
		return
	}
	vas := regs[0][2]
	var nums []int
	if len(regs) == 2 && strings.Contains(s, "-") {
		first, _ := strconv.Atoi(regs[0][1])
		last, _ := strconv.Atoi(regs[1][1])
		for n := first; ; n = (n + 1) % 32 {
			nums = append(nums, n)
			if n == last || len(nums) == 4 {
				break
			}
		}
	} else {
		for _, m := range regs {
			n, _ := strconv.Atoi(m[1])
			nums = append(nums, n)
		}
	}
	acc := b.access()
	for _, n := range nums {
		b.add(disasm.ARM64Operand{
			Type:        disasm.OpReg,
			Reg:         RegV0 + uint(n),
			Vas:         vas,
			VectorIndex: index,
			Access:      acc,
		})
	}
}

package x86

import (
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// x86-specific groups.
const (
	GroupFPU = disasm.GroupArchBase + iota
	GroupMMX
	GroupSSE
	GroupMode64
)

var groupNames = map[uint]string{
	GroupFPU:    "fpu",
	GroupMMX:    "mmx",
	GroupSSE:    "sse",
	GroupMode64: "mode64",
}

var (
	flags    = arch.Regs(RegEFLAGS)
	stack    = arch.Regs(symSP)
	condJump = arch.Effects{Read: flags, Groups: arch.Groups(disasm.GroupJump)}
	loop     = arch.Effects{Read: arch.Regs(symCX), Write: arch.Regs(symCX), Groups: arch.Groups(disasm.GroupJump)}
	trap     = arch.Effects{Read: stack, Write: stack, Groups: arch.Groups(disasm.GroupInt)}
	priv     = arch.Effects{Groups: arch.Groups(disasm.GroupPrivilege)}
	arith    = arch.Effects{Write: flags}
	carry    = arch.Effects{Read: flags, Write: flags}
	push     = arch.Effects{Read: stack, Write: stack}
	mulDiv   = arch.Effects{Read: arch.Regs(symAX), Write: arch.Regs(symAX, symDX, RegEFLAGS)}
	stringOp = arch.Effects{Read: arch.Regs(symSI, symDI), Write: arch.Regs(symSI, symDI)}
	scanOp   = arch.Effects{Read: arch.Regs(symAX, symDI), Write: arch.Regs(symDI, RegEFLAGS)}
	storeOp  = arch.Effects{Read: arch.Regs(symAX, symDI), Write: arch.Regs(symDI)}
	loadOp   = arch.Effects{Read: arch.Regs(symSI), Write: arch.Regs(symAX, symSI)}
	cmpsOp   = arch.Effects{Read: arch.Regs(symSI, symDI), Write: arch.Regs(symSI, symDI, RegEFLAGS)}
)

var opEffects = map[x86asm.Op]arch.Effects{
	x86asm.JMP:      {Groups: arch.Groups(disasm.GroupJump)},
	x86asm.LJMP:     {Groups: arch.Groups(disasm.GroupJump)},
	x86asm.CALL:     {Read: arch.Regs(symSP, symIP), Write: stack, Groups: arch.Groups(disasm.GroupCall)},
	x86asm.LCALL:    {Read: arch.Regs(symSP, symIP), Write: stack, Groups: arch.Groups(disasm.GroupCall)},
	x86asm.RET:      {Read: stack, Write: stack, Groups: arch.Groups(disasm.GroupRet)},
	x86asm.LRET:     {Read: stack, Write: stack, Groups: arch.Groups(disasm.GroupRet)},
	x86asm.IRET:     {Read: stack, Write: arch.Regs(symSP, RegEFLAGS), Groups: arch.Groups(disasm.GroupIRet)},
	x86asm.IRETD:    {Read: stack, Write: arch.Regs(symSP, RegEFLAGS), Groups: arch.Groups(disasm.GroupIRet)},
	x86asm.IRETQ:    {Read: stack, Write: arch.Regs(symSP, RegEFLAGS), Groups: arch.Groups(disasm.GroupIRet)},
	x86asm.INT:      trap,
	x86asm.INTO:     {Read: arch.Regs(symSP, RegEFLAGS), Write: stack, Groups: arch.Groups(disasm.GroupInt)},
	x86asm.ICEBP:    trap,
	x86asm.SYSCALL:  {Groups: arch.Groups(disasm.GroupInt)},
	x86asm.SYSENTER: {Groups: arch.Groups(disasm.GroupInt)},
	x86asm.SYSRET:   {Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)},
	x86asm.SYSEXIT:  {Groups: arch.Groups(disasm.GroupIRet, disasm.GroupPrivilege)},

	x86asm.JA: condJump, x86asm.JAE: condJump, x86asm.JB: condJump, x86asm.JBE: condJump,
	x86asm.JE: condJump, x86asm.JNE: condJump, x86asm.JG: condJump, x86asm.JGE: condJump,
	x86asm.JL: condJump, x86asm.JLE: condJump, x86asm.JO: condJump, x86asm.JNO: condJump,
	x86asm.JP: condJump, x86asm.JNP: condJump, x86asm.JS: condJump, x86asm.JNS: condJump,
	x86asm.JCXZ:   {Read: arch.Regs(uint(x86asm.CX)), Groups: arch.Groups(disasm.GroupJump)},
	x86asm.JECXZ:  {Read: arch.Regs(uint(x86asm.ECX)), Groups: arch.Groups(disasm.GroupJump)},
	x86asm.JRCXZ:  {Read: arch.Regs(uint(x86asm.RCX)), Groups: arch.Groups(disasm.GroupJump)},
	x86asm.LOOP:   loop,
	x86asm.LOOPE:  {Read: arch.Regs(symCX, RegEFLAGS), Write: arch.Regs(symCX), Groups: arch.Groups(disasm.GroupJump)},
	x86asm.LOOPNE: {Read: arch.Regs(symCX, RegEFLAGS), Write: arch.Regs(symCX), Groups: arch.Groups(disasm.GroupJump)},

	x86asm.PUSH:   push,
	x86asm.POP:    push,
	x86asm.PUSHA:  push,
	x86asm.PUSHAD: push,
	x86asm.POPA:   push,
	x86asm.POPAD:  push,
	x86asm.PUSHF:  {Read: arch.Regs(symSP, RegEFLAGS), Write: stack},
	x86asm.PUSHFD: {Read: arch.Regs(symSP, RegEFLAGS), Write: stack},
	x86asm.PUSHFQ: {Read: arch.Regs(symSP, RegEFLAGS), Write: stack},
	x86asm.POPF:   {Read: stack, Write: arch.Regs(symSP, RegEFLAGS)},
	x86asm.POPFD:  {Read: stack, Write: arch.Regs(symSP, RegEFLAGS)},
	x86asm.POPFQ:  {Read: stack, Write: arch.Regs(symSP, RegEFLAGS)},
	x86asm.ENTER:  {Read: arch.Regs(symSP, symBP), Write: arch.Regs(symSP, symBP)},
	x86asm.LEAVE:  {Read: arch.Regs(symSP, symBP), Write: arch.Regs(symSP, symBP)},

	x86asm.ADD: arith, x86asm.SUB: arith, x86asm.CMP: arith, x86asm.TEST: arith,
	x86asm.AND: arith, x86asm.OR: arith, x86asm.XOR: arith, x86asm.INC: arith,
	x86asm.DEC: arith, x86asm.NEG: arith, x86asm.SHL: arith, x86asm.SHR: arith,
	x86asm.SAR: arith, x86asm.ROL: arith, x86asm.ROR: arith, x86asm.BT: arith,
	x86asm.BTS: arith, x86asm.BTR: arith, x86asm.BTC: arith, x86asm.BSF: arith,
	x86asm.BSR: arith, x86asm.XADD: arith, x86asm.SHLD: arith, x86asm.SHRD: arith,
	x86asm.LZCNT: arith, x86asm.TZCNT: arith, x86asm.POPCNT: arith,
	x86asm.COMISS: arith, x86asm.UCOMISS: arith, x86asm.COMISD: arith, x86asm.UCOMISD: arith,
	x86asm.FCOMI: arith, x86asm.FUCOMI: arith, x86asm.FCOMIP: arith, x86asm.FUCOMIP: arith,
	x86asm.STC: arith, x86asm.CLC: arith, x86asm.STD: arith, x86asm.CLD: arith,
	x86asm.ADC: carry, x86asm.SBB: carry, x86asm.RCL: carry, x86asm.RCR: carry, x86asm.CMC: carry,
	x86asm.CMPXCHG: {Read: arch.Regs(symAX), Write: arch.Regs(symAX, RegEFLAGS)},
	x86asm.SAHF:    {Read: arch.Regs(uint(x86asm.AH)), Write: flags},
	x86asm.LAHF:    {Read: flags, Write: arch.Regs(uint(x86asm.AH))},
	x86asm.AAA:     {Read: arch.Regs(uint(x86asm.AL), uint(x86asm.AH)), Write: arch.Regs(uint(x86asm.AL), uint(x86asm.AH), RegEFLAGS)},
	x86asm.AAS:     {Read: arch.Regs(uint(x86asm.AL), uint(x86asm.AH)), Write: arch.Regs(uint(x86asm.AL), uint(x86asm.AH), RegEFLAGS)},
	x86asm.AAM:     {Read: arch.Regs(uint(x86asm.AL)), Write: arch.Regs(uint(x86asm.AL), uint(x86asm.AH), RegEFLAGS)},
	x86asm.AAD:     {Read: arch.Regs(uint(x86asm.AL), uint(x86asm.AH)), Write: arch.Regs(uint(x86asm.AL), uint(x86asm.AH), RegEFLAGS)},
	x86asm.DAA:     {Read: arch.Regs(uint(x86asm.AL), RegEFLAGS), Write: arch.Regs(uint(x86asm.AL), RegEFLAGS)},
	x86asm.DAS:     {Read: arch.Regs(uint(x86asm.AL), RegEFLAGS), Write: arch.Regs(uint(x86asm.AL), RegEFLAGS)},

	x86asm.MUL:  mulDiv,
	x86asm.IMUL: arith,
	x86asm.DIV:  mulDiv,
	x86asm.IDIV: mulDiv,
	x86asm.CWD:  {Read: arch.Regs(uint(x86asm.AX)), Write: arch.Regs(uint(x86asm.DX))},
	x86asm.CDQ:  {Read: arch.Regs(uint(x86asm.EAX)), Write: arch.Regs(uint(x86asm.EDX))},
	x86asm.CQO:  {Read: arch.Regs(uint(x86asm.RAX)), Write: arch.Regs(uint(x86asm.RDX))},
	x86asm.CBW:  {Read: arch.Regs(uint(x86asm.AL)), Write: arch.Regs(uint(x86asm.AX))},
	x86asm.CWDE: {Read: arch.Regs(uint(x86asm.AX)), Write: arch.Regs(uint(x86asm.EAX))},
	x86asm.CDQE: {Read: arch.Regs(uint(x86asm.EAX)), Write: arch.Regs(uint(x86asm.RAX))},
	x86asm.CPUID: {
		Read:  arch.Regs(uint(x86asm.EAX), uint(x86asm.ECX)),
		Write: arch.Regs(uint(x86asm.EAX), uint(x86asm.EBX), uint(x86asm.ECX), uint(x86asm.EDX)),
	},
	x86asm.RDTSC:  {Write: arch.Regs(uint(x86asm.EAX), uint(x86asm.EDX))},
	x86asm.RDTSCP: {Write: arch.Regs(uint(x86asm.EAX), uint(x86asm.ECX), uint(x86asm.EDX))},

	x86asm.MOVSB: stringOp, x86asm.MOVSW: stringOp, x86asm.MOVSD: stringOp, x86asm.MOVSQ: stringOp,
	x86asm.CMPSB: cmpsOp, x86asm.CMPSW: cmpsOp, x86asm.CMPSD: cmpsOp, x86asm.CMPSQ: cmpsOp,
	x86asm.SCASB: scanOp, x86asm.SCASW: scanOp, x86asm.SCASD: scanOp, x86asm.SCASQ: scanOp,
	x86asm.STOSB: storeOp, x86asm.STOSW: storeOp, x86asm.STOSD: storeOp, x86asm.STOSQ: storeOp,
	x86asm.LODSB: loadOp, x86asm.LODSW: loadOp, x86asm.LODSD: loadOp, x86asm.LODSQ: loadOp,

	x86asm.HLT: priv, x86asm.CLI: priv, x86asm.STI: priv, x86asm.IN: priv, x86asm.OUT: priv,
	x86asm.LGDT: priv, x86asm.LIDT: priv, x86asm.LLDT: priv, x86asm.LTR: priv, x86asm.LMSW: priv,
	x86asm.WRMSR: priv, x86asm.RDMSR: priv, x86asm.INVLPG: priv, x86asm.INVD: priv,
	x86asm.WBINVD: priv, x86asm.CLTS: priv,
}

// Flag consumers that are easier to recognise by name than to list.
var condPrefixes = []string{"SET", "CMOV", "FCMOV"}

// effects resolves the table entry for inst and adds the groups that
// follow from its operands and prefixes.
func effects(inst *x86asm.Inst) arch.Effects {
	e := opEffects[inst.Op]
	var extra arch.Effects
	name := inst.Op.String()
	for _, p := range condPrefixes {
		if strings.HasPrefix(name, p) {
			extra.Read = append(extra.Read, RegEFLAGS)
		}
	}
	if name[0] == 'F' {
		extra.Groups = append(extra.Groups, GroupFPU)
	}
	for _, a := range inst.Args {
		if a == nil {
			break
		}
		switch a := a.(type) {
		case x86asm.Rel:
			if isBranch(e) {
				extra.Groups = append(extra.Groups, disasm.GroupBranchRelative)
			}
		case x86asm.Reg:
			switch {
			case x86asm.M0 <= a && a <= x86asm.M7:
				extra.Groups = append(extra.Groups, GroupMMX)
			case x86asm.X0 <= a && a <= x86asm.X15:
				extra.Groups = append(extra.Groups, GroupSSE)
			case x86asm.RAX <= a && a <= x86asm.R15, x86asm.R8B <= a && a <= x86asm.R15B,
				x86asm.R8W <= a && a <= x86asm.R15W, x86asm.R8L <= a && a <= x86asm.R15L:
				extra.Groups = append(extra.Groups, GroupMode64)
			}
		}
	}
	if hasPrefix(inst, x86asm.PrefixREP) || hasPrefix(inst, x86asm.PrefixREPN) {
		if isString(inst.Op) {
			extra.Read = append(extra.Read, symCX)
			extra.Write = append(extra.Write, symCX)
		}
	}
	out := e.Merge(extra)
	out.Read = arch.Canonical(resolve(out.Read, inst))
	out.Write = arch.Canonical(resolve(out.Write, inst))
	return out
}

func isBranch(e arch.Effects) bool {
	for _, g := range e.Groups {
		if g == disasm.GroupJump || g == disasm.GroupCall {
			return true
		}
	}
	return false
}

func isString(op x86asm.Op) bool {
	switch op {
	case x86asm.MOVSB, x86asm.MOVSW, x86asm.MOVSD, x86asm.MOVSQ,
		x86asm.CMPSB, x86asm.CMPSW, x86asm.CMPSD, x86asm.CMPSQ,
		x86asm.SCASB, x86asm.SCASW, x86asm.SCASD, x86asm.SCASQ,
		x86asm.STOSB, x86asm.STOSW, x86asm.STOSD, x86asm.STOSQ,
		x86asm.LODSB, x86asm.LODSW, x86asm.LODSD, x86asm.LODSQ:
		return true
	}
	return false
}

// hasPrefix reports whether p was encoded and not overridden.
func hasPrefix(inst *x86asm.Inst, p x86asm.Prefix) bool {
	for _, q := range inst.Prefix {
		if q == 0 {
			break
		}
		if q&x86asm.PrefixIgnored == 0 && q&0xFF == p&0xFF {
			return true
		}
	}
	return false
}

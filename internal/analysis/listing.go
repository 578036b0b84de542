// Package analysis turns decoded streams into annotated listings: symbol
// labels, branch target labels and a resynchronising sweep that keeps
// going past undecodable bytes.
package analysis

import (
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"dissect/internal/disasm"
)

// Line is one listing row. Label is set when a symbol or branch target
// starts at the instruction. Target names the destination of a direct
// branch or call.
type Line struct {
	Inst   disasm.Inst
	Label  string
	Target string
}

// String formats the row as "addr: bytes  mnemonic operands ; target".
// The label, if any, is not included; see Lines.
func (l Line) String() string {
	bs := hex.EncodeToString(l.Inst.Bytes)
	if len(bs) > 24 {
		bs = bs[:22] + ".."
	}
	base := fmt.Sprintf("%8x:  %-24s %s", l.Inst.Address, bs, l.Inst.Text())
	if l.Target != "" {
		return fmt.Sprintf("%-60s ; %s", base, l.Target)
	}
	return strings.TrimRight(base, " ")
}

// Lines renders rows with their labels on a line of their own.
func Lines(rows []Line) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.Label != "" {
			out = append(out, "", r.Label+":")
		}
		out = append(out, r.String())
	}
	return out
}

// Target returns the destination of a direct jump or call: the last
// immediate operand of an instruction in the jump or call group.
func Target(inst *disasm.Inst) (addr uint64, call bool, ok bool) {
	d, err := inst.Detail()
	if err != nil {
		return 0, false, false
	}
	groups, err := d.Groups()
	if err != nil {
		return 0, false, false
	}
	call = slices.Contains(groups, disasm.GroupCall)
	if !call && !slices.Contains(groups, disasm.GroupJump) {
		return 0, false, false
	}
	imm, ok := lastImm(d.Operands())
	if !ok {
		return 0, false, false
	}
	return uint64(imm), call, true
}

func lastImm(ops disasm.Operands) (int64, bool) {
	var types []disasm.OpType
	var imms []int64
	switch o := ops.(type) {
	case *disasm.ARMOperands:
		for _, op := range o.Operands {
			types, imms = append(types, op.Type), append(imms, op.Imm)
		}
	case *disasm.ARM64Operands:
		for _, op := range o.Operands {
			types, imms = append(types, op.Type), append(imms, op.Imm)
		}
	case *disasm.MIPSOperands:
		for _, op := range o.Operands {
			types, imms = append(types, op.Type), append(imms, op.Imm)
		}
	case *disasm.X86Operands:
		for _, op := range o.Operands {
			types, imms = append(types, op.Type), append(imms, op.Imm)
		}
	case *disasm.PPCOperands:
		for _, op := range o.Operands {
			types, imms = append(types, op.Type), append(imms, op.Imm)
		}
	}
	if n := len(types); n > 0 && types[n-1] == disasm.OpImm {
		return imms[n-1], true
	}
	return 0, false
}

// Annotate labels a stream. Symbols from labels name their addresses.
// Direct branch targets inside the stream that carry no symbol get
// loc_XXXX, or sub_XXXX for call targets. Targets outside the stream are
// only named when a symbol covers them. Synthetic labels are added to
// labels, which may be nil.
func Annotate(s disasm.Stream, labels *Labels) []Line {
	if labels == nil {
		labels = &Labels{names: make(map[uint64]string)}
	}
	starts := make(map[uint64]bool, len(s))
	for i := range s {
		starts[s[i].Address] = true
	}

	rows := make([]Line, len(s))
	for i := range s {
		rows[i].Inst = s[i]
		addr, call, ok := Target(&s[i])
		if !ok {
			continue
		}
		if starts[addr] {
			rows[i].Target = labels.synth(addr, call)
		} else if name, ok := labels.Name(addr); ok {
			rows[i].Target = name
		}
	}
	for i := range rows {
		if name, ok := labels.Name(rows[i].Inst.Address); ok {
			rows[i].Label = name
		}
	}
	return rows
}

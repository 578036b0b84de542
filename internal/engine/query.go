package engine

import (
	"fmt"
	"slices"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

func (h *Handle) name(op string, id uint, lookup func(arch.Decoder, uint) (string, bool)) (string, error) {
	if err := h.check(op); err != nil {
		return "", err
	}
	if h.diet {
		return "", fmt.Errorf("%s %d: %w", op, id, disasm.ErrDiet)
	}
	name, ok := lookup(h.dec, id)
	if !ok {
		return "", fmt.Errorf("%s %d on %s: %w", op, id, h.arch, disasm.ErrUnknownID)
	}
	return name, nil
}

// RegName returns the name of register id.
func (h *Handle) RegName(id uint) (string, error) {
	return h.name("reg name", id, arch.Decoder.RegName)
}

// InsnName returns the name of instruction id.
func (h *Handle) InsnName(id uint) (string, error) {
	return h.name("insn name", id, arch.Decoder.InsnName)
}

// GroupName returns the name of group id.
func (h *Handle) GroupName(id uint) (string, error) {
	return h.name("group name", id, arch.Decoder.GroupName)
}

// detailOf returns the detail of inst, failing with ErrDiet on reduced
// engines and ErrDetail when inst was decoded without detail.
func (h *Handle) detailOf(op string, inst *disasm.Inst) (*disasm.Detail, error) {
	if err := h.check(op); err != nil {
		return nil, err
	}
	if h.diet || inst.Reduced() {
		return nil, fmt.Errorf("%s: %w", op, disasm.ErrDiet)
	}
	d, err := inst.Detail()
	if err != nil {
		return nil, fmt.Errorf("%s at %#x: %w", op, inst.Address, err)
	}
	return d, nil
}

// InsnGroup reports whether inst belongs to group.
func (h *Handle) InsnGroup(inst *disasm.Inst, group uint) (bool, error) {
	d, err := h.detailOf("insn group", inst)
	if err != nil {
		return false, err
	}
	groups, err := d.Groups()
	if err != nil {
		return false, err
	}
	return slices.Contains(groups, group), nil
}

// RegRead reports whether inst implicitly reads reg.
func (h *Handle) RegRead(inst *disasm.Inst, reg uint) (bool, error) {
	d, err := h.detailOf("reg read", inst)
	if err != nil {
		return false, err
	}
	regs, err := d.RegistersRead()
	if err != nil {
		return false, err
	}
	return slices.Contains(regs, reg), nil
}

// RegWrite reports whether inst implicitly writes reg.
func (h *Handle) RegWrite(inst *disasm.Inst, reg uint) (bool, error) {
	d, err := h.detailOf("reg write", inst)
	if err != nil {
		return false, err
	}
	regs, err := d.RegistersWritten()
	if err != nil {
		return false, err
	}
	return slices.Contains(regs, reg), nil
}

// RegsAccess returns every register inst reads and writes, implicit or
// named by an operand, in ascending id order.
func (h *Handle) RegsAccess(inst *disasm.Inst) (read, write []uint, err error) {
	d, err := h.detailOf("regs access", inst)
	if err != nil {
		return nil, nil, err
	}
	if d.Operands() != nil && d.Operands().Arch() != h.arch {
		return nil, nil, fmt.Errorf("regs access: %s record on %s handle: %w", d.Operands().Arch(), h.arch, disasm.ErrOption)
	}
	implicitRead, err := d.RegistersRead()
	if err != nil {
		return nil, nil, err
	}
	implicitWrite, err := d.RegistersWritten()
	if err != nil {
		return nil, nil, err
	}
	opRead, opWrite := disasm.OperandRegs(d.Operands())
	read = arch.Canonical(append(implicitRead, opRead...))
	write = arch.Canonical(append(implicitWrite, opWrite...))
	return read, write, nil
}

package disasm

import "slices"

// Operands is the architecture-specific operand payload of a record. It is
// a closed variant: exactly one of *ARMOperands, *ARM64Operands,
// *MIPSOperands, *X86Operands or *PPCOperands, always matching the
// architecture of the handle that produced the record.
type Operands interface {
	Arch() Arch
	isOperands()
	clone() Operands
}

// OpType says which field of an operand is meaningful.
type OpType uint8

const (
	OpInvalid OpType = iota
	OpReg
	OpImm
	OpMem
	OpFP
	OpCImm   // coprocessor immediate / system encoding
	OpSysReg // system or special-purpose register by encoding
	OpCond   // condition code operand (ARM64 CSEL family, PPC CR bit)
	OpCRX    // PPC condition register field
)

var opTypeNames = [...]string{
	OpInvalid: "invalid",
	OpReg:     "reg",
	OpImm:     "imm",
	OpMem:     "mem",
	OpFP:      "fp",
	OpCImm:    "cimm",
	OpSysReg:  "sysreg",
	OpCond:    "cond",
	OpCRX:     "crx",
}

func (t OpType) String() string {
	if int(t) < len(opTypeNames) {
		return opTypeNames[t]
	}
	return "invalid"
}

func (t OpType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Access flags for an operand.
const (
	AccessRead  uint8 = 1 << 0
	AccessWrite uint8 = 1 << 1
)

// Shift describes an operand shift or extend.
type Shift struct {
	Type  string `json:"type,omitempty"` // "lsl", "lsr", "asr", "ror", "rrx", "msl"
	Value uint   `json:"value,omitempty"`
	Reg   uint   `json:"reg,omitempty"` // shift amount register, ARM only
}

// ARMOperands is the A32/Thumb payload.
type ARMOperands struct {
	CC          uint         `json:"cc"` // condition code, ARMCondAL when unconditional
	UpdateFlags bool         `json:"update_flags,omitempty"`
	Writeback   bool         `json:"writeback,omitempty"`
	Operands    []ARMOperand `json:"operands"`
}

// ARM condition codes. The numbering follows the encoding plus one, so the
// zero value means "none".
const (
	ARMCondInvalid uint = iota
	ARMCondEQ
	ARMCondNE
	ARMCondHS
	ARMCondLO
	ARMCondMI
	ARMCondPL
	ARMCondVS
	ARMCondVC
	ARMCondHI
	ARMCondLS
	ARMCondGE
	ARMCondLT
	ARMCondGT
	ARMCondLE
	ARMCondAL
)

type ARMOperand struct {
	Type        OpType  `json:"type"`
	Reg         uint    `json:"reg,omitempty"`
	Imm         int64   `json:"imm,omitempty"`
	FP          float64 `json:"fp,omitempty"`
	Mem         ARMMem  `json:"mem,omitzero"`
	Shift       Shift   `json:"shift,omitzero"`
	Subtracted  bool    `json:"subtracted,omitempty"`
	VectorIndex int     `json:"vector_index,omitempty"`
	Access      uint8   `json:"access,omitempty"`
}

type ARMMem struct {
	Base  uint  `json:"base,omitempty"`
	Index uint  `json:"index,omitempty"`
	Scale int   `json:"scale,omitempty"` // 1 or -1 for a subtracted index
	Disp  int   `json:"disp,omitempty"`
	Shift Shift `json:"shift,omitzero"`
}

func (*ARMOperands) Arch() Arch { return ArchARM }
func (*ARMOperands) isOperands() {}

func (o *ARMOperands) clone() Operands {
	if o == nil {
		return nil
	}
	c := *o
	c.Operands = slices.Clone(o.Operands)
	return &c
}

// ARM64Operands is the A64 payload.
type ARM64Operands struct {
	CC          uint           `json:"cc"` // condition code, ARMCond* numbering
	UpdateFlags bool           `json:"update_flags,omitempty"`
	Writeback   bool           `json:"writeback,omitempty"`
	Operands    []ARM64Operand `json:"operands"`
}

type ARM64Operand struct {
	Type        OpType   `json:"type"`
	Reg         uint     `json:"reg,omitempty"`
	Imm         int64    `json:"imm,omitempty"`
	FP          float64  `json:"fp,omitempty"`
	Mem         ARM64Mem `json:"mem,omitzero"`
	Shift       Shift    `json:"shift,omitzero"`
	Ext         string   `json:"ext,omitempty"` // uxtb ... sxtx
	Vas         string   `json:"vas,omitempty"` // vector arrangement, e.g. "4s"
	VectorIndex int      `json:"vector_index,omitempty"`
	Sys         string   `json:"sys,omitempty"`
	Access      uint8    `json:"access,omitempty"`
}

type ARM64Mem struct {
	Base  uint  `json:"base,omitempty"`
	Index uint  `json:"index,omitempty"`
	Disp  int32 `json:"disp,omitempty"`
}

func (*ARM64Operands) Arch() Arch { return ArchARM64 }
func (*ARM64Operands) isOperands() {}

func (o *ARM64Operands) clone() Operands {
	if o == nil {
		return nil
	}
	c := *o
	c.Operands = slices.Clone(o.Operands)
	return &c
}

// MIPSOperands is the MIPS payload.
type MIPSOperands struct {
	Operands []MIPSOperand `json:"operands"`
}

type MIPSOperand struct {
	Type   OpType  `json:"type"`
	Reg    uint    `json:"reg,omitempty"`
	Imm    int64   `json:"imm,omitempty"`
	Mem    MIPSMem `json:"mem,omitzero"`
	Access uint8   `json:"access,omitempty"`
}

type MIPSMem struct {
	Base uint  `json:"base,omitempty"`
	Disp int64 `json:"disp,omitempty"`
}

func (*MIPSOperands) Arch() Arch { return ArchMIPS }
func (*MIPSOperands) isOperands() {}

func (o *MIPSOperands) clone() Operands {
	if o == nil {
		return nil
	}
	c := *o
	c.Operands = slices.Clone(o.Operands)
	return &c
}

// X86Operands is the x86 payload.
type X86Operands struct {
	Prefix   []byte       `json:"prefix,omitempty"`
	Opcode   []byte       `json:"opcode"`
	AddrSize uint8        `json:"addr_size"` // bytes
	OpSize   uint8        `json:"op_size"`   // bytes
	Disp     int64        `json:"disp,omitempty"`
	Operands []X86Operand `json:"operands"`
}

type X86Operand struct {
	Type   OpType `json:"type"`
	Reg    uint   `json:"reg,omitempty"`
	Imm    int64  `json:"imm,omitempty"`
	Mem    X86Mem `json:"mem,omitzero"`
	Size   uint8  `json:"size,omitempty"` // bytes
	Access uint8  `json:"access,omitempty"`
}

type X86Mem struct {
	Segment uint  `json:"segment,omitempty"`
	Base    uint  `json:"base,omitempty"`
	Index   uint  `json:"index,omitempty"`
	Scale   int   `json:"scale,omitempty"`
	Disp    int64 `json:"disp,omitempty"`
}

func (*X86Operands) Arch() Arch { return ArchX86 }
func (*X86Operands) isOperands() {}

func (o *X86Operands) clone() Operands {
	if o == nil {
		return nil
	}
	c := *o
	c.Prefix = slices.Clone(o.Prefix)
	c.Opcode = slices.Clone(o.Opcode)
	c.Operands = slices.Clone(o.Operands)
	return &c
}

// PPCOperands is the Power payload.
type PPCOperands struct {
	BC        int          `json:"bc,omitempty"` // BO field of conditional branches
	BH        int          `json:"bh,omitempty"` // branch hint
	UpdateCR0 bool         `json:"update_cr0,omitempty"`
	Operands  []PPCOperand `json:"operands"`
}

type PPCOperand struct {
	Type   OpType `json:"type"`
	Reg    uint   `json:"reg,omitempty"`
	Imm    int64  `json:"imm,omitempty"`
	Mem    PPCMem `json:"mem,omitzero"`
	CRX    PPCCRX `json:"crx,omitzero"`
	Access uint8  `json:"access,omitempty"`
}

type PPCMem struct {
	Base uint `json:"base,omitempty"`
	Disp int  `json:"disp,omitempty"`
}

// PPCCRX names one bit of a condition register field.
type PPCCRX struct {
	Scale uint `json:"scale,omitempty"`
	Reg   uint `json:"reg,omitempty"`
	Cond  uint `json:"cond,omitempty"` // 0 lt, 1 gt, 2 eq, 3 so
}

func (*PPCOperands) Arch() Arch { return ArchPPC }
func (*PPCOperands) isOperands() {}

func (o *PPCOperands) clone() Operands {
	if o == nil {
		return nil
	}
	c := *o
	c.Operands = slices.Clone(o.Operands)
	return &c
}

// OperandRegs collects the registers an operand list names, split by
// access. Memory base and index registers count as reads. Registers appear
// once, in operand order.
func OperandRegs(ops Operands) (read, write []uint) {
	add := func(dst []uint, r uint) []uint {
		if r == 0 {
			return dst
		}
		for _, x := range dst {
			if x == r {
				return dst
			}
		}
		return append(dst, r)
	}
	reg := func(r uint, access uint8) {
		if access&AccessRead != 0 || access == 0 {
			read = add(read, r)
		}
		if access&AccessWrite != 0 {
			write = add(write, r)
		}
	}
	switch o := ops.(type) {
	case *ARMOperands:
		for _, op := range o.Operands {
			switch op.Type {
			case OpReg:
				reg(op.Reg, op.Access)
				if op.Shift.Reg != 0 {
					read = add(read, op.Shift.Reg)
				}
			case OpMem:
				read = add(read, op.Mem.Base)
				read = add(read, op.Mem.Index)
				if o.Writeback {
					write = add(write, op.Mem.Base)
				}
			}
		}
	case *ARM64Operands:
		for _, op := range o.Operands {
			switch op.Type {
			case OpReg:
				reg(op.Reg, op.Access)
			case OpMem:
				read = add(read, op.Mem.Base)
				read = add(read, op.Mem.Index)
				if o.Writeback {
					write = add(write, op.Mem.Base)
				}
			}
		}
	case *MIPSOperands:
		for _, op := range o.Operands {
			switch op.Type {
			case OpReg:
				reg(op.Reg, op.Access)
			case OpMem:
				read = add(read, op.Mem.Base)
			}
		}
	case *X86Operands:
		for _, op := range o.Operands {
			switch op.Type {
			case OpReg:
				reg(op.Reg, op.Access)
			case OpMem:
				read = add(read, op.Mem.Segment)
				read = add(read, op.Mem.Base)
				read = add(read, op.Mem.Index)
			}
		}
	case *PPCOperands:
		for _, op := range o.Operands {
			switch op.Type {
			case OpReg:
				reg(op.Reg, op.Access)
			case OpMem:
				read = add(read, op.Mem.Base)
			case OpCRX:
				reg(op.CRX.Reg, op.Access)
			}
		}
	}
	return read, write
}

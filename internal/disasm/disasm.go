// Package disasm defines the common instruction representation shared by
// the architecture decoders, the engine and the listing front ends.
package disasm

import (
	"encoding/hex"
	"encoding/json"
	"slices"
)

// Inst is one decoded instruction. Records are snapshots: nothing the
// engine does after decode changes them, and the text and detail
// accessors hand out copies.
type Inst struct {
	ID      uint   // architecture-specific opcode identity, 0 for data
	Address uint64 // virtual address of the first byte
	Size    int    // number of bytes consumed
	Bytes   []byte // exact byte span, len(Bytes) == Size

	mnemonic string
	opStr    string
	detail   *Detail
	reduced  bool
}

// NewInst builds a record. code is copied. When reduced is set the text
// fields are dropped and their accessors report ErrDiet.
func NewInst(id uint, addr uint64, code []byte, mnemonic, opStr string, detail *Detail, reduced bool) Inst {
	inst := Inst{
		ID:      id,
		Address: addr,
		Size:    len(code),
		Bytes:   slices.Clone(code),
		detail:  detail,
		reduced: reduced,
	}
	if !reduced {
		inst.mnemonic = mnemonic
		inst.opStr = opStr
	}
	return inst
}

// Mnemonic returns the instruction mnemonic in lowercase.
func (i *Inst) Mnemonic() (string, error) {
	if i.reduced {
		return "", ErrDiet
	}
	return i.mnemonic, nil
}

// OpStr returns the operand text in the syntax active at decode time.
func (i *Inst) OpStr() (string, error) {
	if i.reduced {
		return "", ErrDiet
	}
	return i.opStr, nil
}

// Text is mnemonic and operands joined by a space. Reduced records render
// as an empty string.
func (i *Inst) Text() string {
	if i.reduced {
		return ""
	}
	if i.opStr == "" {
		return i.mnemonic
	}
	return i.mnemonic + " " + i.opStr
}

// Reduced reports whether the record came from a diet engine.
func (i *Inst) Reduced() bool { return i.reduced }

// HasDetail reports whether detail tracking was on when i was decoded.
func (i *Inst) HasDetail() bool { return i.detail != nil }

// Detail returns the detail payload or ErrDetail if tracking was off.
func (i *Inst) Detail() (*Detail, error) {
	if i.detail == nil {
		return nil, ErrDetail
	}
	return i.detail, nil
}

// IsData reports whether the record is a data filler produced by a
// resynchronizing sweep rather than by an architecture decoder.
func (i *Inst) IsData() bool { return i.ID == 0 }

// End is the address one past the last byte.
func (i *Inst) End() uint64 { return i.Address + uint64(i.Size) }

// Detail is the optional per-instruction payload.
type Detail struct {
	regsRead  []uint
	regsWrite []uint
	groups    []uint
	operands  Operands
	reduced   bool
}

// NewDetail builds a detail payload. In reduced mode the register and group
// sets are not retained.
func NewDetail(read, write, groups []uint, ops Operands, reduced bool) *Detail {
	d := &Detail{operands: ops, reduced: reduced}
	if !reduced {
		d.regsRead = slices.Clone(read)
		d.regsWrite = slices.Clone(write)
		d.groups = slices.Clone(groups)
	}
	return d
}

// RegistersRead returns the implicit registers read, in ascending id order.
func (d *Detail) RegistersRead() ([]uint, error) {
	if d.reduced {
		return nil, ErrDiet
	}
	return slices.Clone(d.regsRead), nil
}

// RegistersWritten returns the implicit registers written, in ascending id
// order.
func (d *Detail) RegistersWritten() ([]uint, error) {
	if d.reduced {
		return nil, ErrDiet
	}
	return slices.Clone(d.regsWrite), nil
}

// Groups returns the semantic groups the instruction belongs to.
func (d *Detail) Groups() ([]uint, error) {
	if d.reduced {
		return nil, ErrDiet
	}
	return slices.Clone(d.groups), nil
}

// Operands returns a copy of the architecture-specific operand variant.
// It is available in reduced builds too.
func (d *Detail) Operands() Operands {
	if d.operands == nil {
		return nil
	}
	return d.operands.clone()
}

// Stream is the ordered result of one decode call.
type Stream []Inst

// Consumed is the total number of bytes covered by the stream.
func (s Stream) Consumed() int {
	n := 0
	for i := range s {
		n += s[i].Size
	}
	return n
}

type jsonDetail struct {
	RegsRead  []uint   `json:"regs_read,omitempty"`
	RegsWrite []uint   `json:"regs_write,omitempty"`
	Groups    []uint   `json:"groups,omitempty"`
	Operands  Operands `json:"operands,omitempty"`
}

type jsonInst struct {
	ID       uint        `json:"id"`
	Address  uint64      `json:"address"`
	Size     int         `json:"size"`
	Bytes    hexBytes    `json:"bytes"`
	Mnemonic string      `json:"mnemonic,omitempty"`
	OpStr    string      `json:"op_str,omitempty"`
	Detail   *jsonDetail `json:"detail,omitempty"`
}

type hexBytes []byte

func (b hexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(b))
}

func (i Inst) MarshalJSON() ([]byte, error) {
	out := jsonInst{
		ID:       i.ID,
		Address:  i.Address,
		Size:     i.Size,
		Bytes:    i.Bytes,
		Mnemonic: i.mnemonic,
		OpStr:    i.opStr,
	}
	if d := i.detail; d != nil {
		out.Detail = &jsonDetail{
			RegsRead:  d.regsRead,
			RegsWrite: d.regsWrite,
			Groups:    d.groups,
			Operands:  d.operands,
		}
	}
	return json.Marshal(out)
}

// Package arch defines the capability every architecture decoder
// provides and the helpers they share.
package arch

import (
	"errors"
	"slices"

	"dissect/internal/disasm"
)

var (
	// ErrInvalid means no valid instruction starts at the cursor.
	ErrInvalid = errors.New("invalid instruction")
	// ErrShort means the remaining bytes cannot hold the instruction.
	ErrShort = errors.New("truncated instruction")
)

// Decoder decodes one instruction at a time for a single architecture.
// Implementations hold no per-call state, so one value may back any number
// of handles.
type Decoder interface {
	Arch() disasm.Arch

	// ValidateMode returns an error wrapping disasm.ErrMode when m has bits
	// this architecture cannot honour.
	ValidateMode(m disasm.Mode) error
	// ValidateSyntax returns an error wrapping disasm.ErrOption when s is
	// not available on this architecture.
	ValidateSyntax(s disasm.Syntax) error
	DefaultSyntax() disasm.Syntax
	MaxInsnSize() int

	// Decode decodes the instruction at the start of code, located at
	// addr. It returns ErrInvalid or ErrShort when nothing decodes.
	Decode(code []byte, addr uint64, mode disasm.Mode, syntax disasm.Syntax) (Decoded, error)

	RegName(id uint) (string, bool)
	InsnName(id uint) (string, bool)
	GroupName(id uint) (string, bool)
}

// Decoded is the architecture-neutral result of a single decode step.
type Decoded struct {
	ID       uint
	Size     int
	Mnemonic string
	OpStr    string
	Effects  Effects
	Operands disasm.Operands
}

// Effects are the implicit register reads and writes and the group
// memberships an opcode declares.
type Effects struct {
	Read   []uint
	Write  []uint
	Groups []uint
}

// Merge returns the union of e and o. Every list comes back sorted with
// duplicates removed.
func (e Effects) Merge(o Effects) Effects {
	return Effects{
		Read:   Canonical(append(slices.Clone(e.Read), o.Read...)),
		Write:  Canonical(append(slices.Clone(e.Write), o.Write...)),
		Groups: Canonical(append(slices.Clone(e.Groups), o.Groups...)),
	}
}

// Canonical sorts ids ascending and drops duplicates and zero.
func Canonical(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)
	if ids[0] == 0 {
		ids = ids[1:]
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// Regs and Groups keep effect tables short to write.
func Regs(ids ...uint) []uint   { return ids }
func Groups(ids ...uint) []uint { return ids }

// GroupName resolves common groups first and falls back to the
// architecture-specific names.
func GroupName(id uint, specific map[uint]string) (string, bool) {
	if name, ok := disasm.CommonGroupName(id); ok {
		return name, true
	}
	name, ok := specific[id]
	return name, ok
}

package disasm

import (
	"fmt"
	"strings"
)

// Arch identifies an instruction-set family.
type Arch int

const (
	ArchARM Arch = iota
	ArchARM64
	ArchMIPS
	ArchX86
	ArchPPC
	archMax
)

var archNames = [...]string{
	ArchARM:   "arm",
	ArchARM64: "arm64",
	ArchMIPS:  "mips",
	ArchX86:   "x86",
	ArchPPC:   "ppc",
}

// Archs lists every supported architecture in enum order.
func Archs() []Arch {
	out := make([]Arch, 0, archMax)
	for a := ArchARM; a < archMax; a++ {
		out = append(out, a)
	}
	return out
}

func (a Arch) String() string {
	if a >= 0 && a < archMax {
		return archNames[a]
	}
	return fmt.Sprintf("Arch(%d)", int(a))
}

// Valid reports whether a names a supported architecture.
func (a Arch) Valid() bool { return a >= 0 && a < archMax }

// ParseArch accepts the canonical names plus common toolchain aliases.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arm", "arm32", "armv7", "a32":
		return ArchARM, nil
	case "arm64", "aarch64", "a64":
		return ArchARM64, nil
	case "mips", "mipsel", "mips64", "mips64el", "mipsle":
		return ArchMIPS, nil
	case "x86", "x86_64", "x86-64", "amd64", "386", "i386", "x64":
		return ArchX86, nil
	case "ppc", "ppc64", "ppc64le", "powerpc", "power":
		return ArchPPC, nil
	}
	return 0, fmt.Errorf("parse arch %q: %w", s, ErrArch)
}

// Mode is a set of decode flags: word width, endianness and ISA variant.
// Bit meanings overlap between architectures the same way they do in
// Capstone (Thumb and microMIPS share a bit).
type Mode uint32

const (
	ModeLittleEndian Mode = 0
	ModeARM          Mode = 0
	Mode16           Mode = 1 << 1
	Mode32           Mode = 1 << 2
	Mode64           Mode = 1 << 3
	ModeThumb        Mode = 1 << 4
	ModeMicro        Mode = 1 << 4
	ModeN64          Mode = 1 << 5
	ModeBigEndian    Mode = 1 << 31
)

// Has reports whether every bit in f is set.
func (m Mode) Has(f Mode) bool { return m&f == f && f != 0 }

// BigEndian reports whether the big-endian bit is set.
func (m Mode) BigEndian() bool { return m&ModeBigEndian != 0 }

func (m Mode) String() string {
	var parts []string
	if m&ModeBigEndian != 0 {
		parts = append(parts, "be")
	} else {
		parts = append(parts, "le")
	}
	for _, f := range []struct {
		bit  Mode
		name string
	}{
		{Mode16, "16"}, {Mode32, "32"}, {Mode64, "64"},
		{ModeThumb, "thumb"}, {ModeN64, "n64"},
	} {
		if m&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	if rest := m &^ (ModeBigEndian | Mode16 | Mode32 | Mode64 | ModeThumb | ModeN64); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, ",")
}

// ParseMode parses a comma separated flag list such as "32,be" or
// "thumb". An empty string is little-endian with no other bits.
func ParseMode(s string) (Mode, error) {
	var m Mode
	for _, tok := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == '|' || r == '+' || r == ' '
	}) {
		switch tok {
		case "le", "little", "little-endian", "arm":
		case "be", "big", "big-endian":
			m |= ModeBigEndian
		case "16":
			m |= Mode16
		case "32":
			m |= Mode32
		case "64":
			m |= Mode64
		case "thumb":
			m |= ModeThumb
		case "micro", "micromips":
			m |= ModeMicro
		case "n64":
			m |= ModeN64
		default:
			return 0, fmt.Errorf("parse mode flag %q: %w", tok, ErrMode)
		}
	}
	return m, nil
}

// Syntax selects the textual rendering of operands.
type Syntax int

const (
	SyntaxDefault   Syntax = iota
	SyntaxIntel            // X86 Intel syntax
	SyntaxATT              // X86 AT&T syntax
	SyntaxNoRegName        // print register numbers instead of names
)

var syntaxNames = [...]string{
	SyntaxDefault:   "default",
	SyntaxIntel:     "intel",
	SyntaxATT:       "att",
	SyntaxNoRegName: "noregname",
}

func (s Syntax) String() string {
	if s >= 0 && int(s) < len(syntaxNames) {
		return syntaxNames[s]
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return SyntaxDefault, nil
	case "intel":
		return SyntaxIntel, nil
	case "att", "at&t", "gnu":
		return SyntaxATT, nil
	case "noregname", "numeric":
		return SyntaxNoRegName, nil
	}
	return 0, fmt.Errorf("parse syntax %q: %w", s, ErrOption)
}

// Common semantic groups. Architecture-specific groups start at
// GroupArchBase.
const (
	GroupInvalid uint = iota
	GroupJump
	GroupCall
	GroupRet
	GroupInt
	GroupIRet
	GroupPrivilege
	GroupBranchRelative

	GroupArchBase uint = 128
)

var groupNames = [...]string{
	GroupJump:           "jump",
	GroupCall:           "call",
	GroupRet:            "return",
	GroupInt:            "int",
	GroupIRet:           "iret",
	GroupPrivilege:      "privilege",
	GroupBranchRelative: "branch_relative",
}

// CommonGroupName returns the name of a group shared by every
// architecture.
func CommonGroupName(id uint) (string, bool) {
	if id == GroupInvalid || id >= uint(len(groupNames)) {
		return "", false
	}
	return groupNames[id], true
}

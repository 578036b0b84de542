// Package x86 decodes 16, 32 and 64-bit x86 code through x86asm and
// renders it in Intel or AT&T syntax.
package x86

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/arch/x86/x86asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

const maxInsnLen = 15

// x86asm records decoder coverage in a package-level table.
var libMu sync.Mutex

// Decoder implements arch.Decoder for x86.
type Decoder struct{}

var _ arch.Decoder = Decoder{}

func New() Decoder { return Decoder{} }

func (Decoder) Arch() disasm.Arch            { return disasm.ArchX86 }
func (Decoder) DefaultSyntax() disasm.Syntax { return disasm.SyntaxIntel }
func (Decoder) MaxInsnSize() int             { return maxInsnLen }

// ValidateMode requires exactly one width. Bits that only mean something
// on other architectures are ignored.
func (Decoder) ValidateMode(m disasm.Mode) error {
	if m.BigEndian() {
		return fmt.Errorf("x86: big-endian: %w", disasm.ErrMode)
	}
	if width(m) == 0 {
		return fmt.Errorf("x86: mode %s needs exactly one of 16, 32 or 64: %w", m, disasm.ErrMode)
	}
	return nil
}

func (Decoder) ValidateSyntax(s disasm.Syntax) error {
	switch s {
	case disasm.SyntaxDefault, disasm.SyntaxIntel, disasm.SyntaxATT:
		return nil
	}
	return fmt.Errorf("x86: syntax %s: %w", s, disasm.ErrOption)
}

func (Decoder) RegName(id uint) (string, bool) { return regName(id) }

func (Decoder) InsnName(id uint) (string, bool) {
	if id == 0 || id > 0xFFFF {
		return "", false
	}
	name := x86asm.Op(id).String()
	if strings.HasPrefix(name, "Op(") {
		return "", false
	}
	return strings.ToLower(name), true
}

func (Decoder) GroupName(id uint) (string, bool) { return arch.GroupName(id, groupNames) }

func width(m disasm.Mode) int {
	switch m & (disasm.Mode16 | disasm.Mode32 | disasm.Mode64) {
	case disasm.Mode16:
		return 16
	case disasm.Mode32:
		return 32
	case disasm.Mode64:
		return 64
	}
	return 0
}

func (Decoder) Decode(code []byte, addr uint64, mode disasm.Mode, syntax disasm.Syntax) (arch.Decoded, error) {
	if len(code) == 0 {
		return arch.Decoded{}, arch.ErrShort
	}
	bits := width(mode)
	if bits == 0 {
		return arch.Decoded{}, arch.ErrInvalid
	}

	libMu.Lock()
	inst, err := x86asm.Decode(code, bits)
	if err == nil && inst.Op == 0 {
		// x86asm reports a lone prefix when the rest does not decode.
		err = x86asm.ErrUnrecognized
	}
	if err != nil && !errors.Is(err, x86asm.ErrTruncated) && truncated(code, bits) {
		err = x86asm.ErrTruncated
	}
	libMu.Unlock()
	switch {
	case errors.Is(err, x86asm.ErrTruncated):
		return arch.Decoded{}, arch.ErrShort
	case err != nil:
		return arch.Decoded{}, arch.ErrInvalid
	}
	for _, p := range inst.Prefix {
		if p&x86asm.PrefixInvalid != 0 {
			return arch.Decoded{}, arch.ErrInvalid
		}
	}

	var text string
	if syntax == disasm.SyntaxATT {
		text = x86asm.GNUSyntax(inst, addr, nil)
	} else {
		text = x86asm.IntelSyntax(inst, addr, nil)
	}
	if addr == 0 {
		text = absolute(text, inst.Len)
	}
	mnemonic, opStr := split(text)
	if syntax == disasm.SyntaxATT {
		opStr = spaceCommas(opStr)
	}

	return arch.Decoded{
		ID:       uint(inst.Op),
		Size:     inst.Len,
		Mnemonic: mnemonic,
		OpStr:    opStr,
		Effects:  effects(&inst),
		Operands: operands(&inst, addr),
	}, nil
}

// truncated reports whether code is the start of an instruction that
// would decode with more bytes. The caller holds libMu.
func truncated(code []byte, bits int) bool {
	if len(code) >= maxInsnLen {
		return false
	}
	padded := make([]byte, maxInsnLen)
	copy(padded, code)
	inst, err := x86asm.Decode(padded, bits)
	return err == nil && inst.Op != 0 && inst.Len > len(code)
}

// x86asm prints branch targets relative to the instruction when the
// program counter is zero.
var relTarget = regexp.MustCompile(`\.[+-]0x[0-9a-f]+`)

func absolute(text string, size int) string {
	return relTarget.ReplaceAllStringFunc(text, func(s string) string {
		rel, err := strconv.ParseInt(s[1:], 0, 64)
		if err != nil {
			return s
		}
		return arch.Addr(uint64(int64(size) + rel))
	})
}

var prefixWords = map[string]bool{
	"lock": true, "rep": true, "repe": true, "repz": true, "repne": true, "repnz": true, "repn": true,
	"xacquire": true, "xrelease": true, "bnd": true, "notrack": true,
	"hint-taken": true, "hint-not-taken": true, "pt": true, "pn": true,
	"addr16": true, "addr32": true, "data16": true, "data32": true,
	"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true,
}

// split separates the mnemonic, with any prefixes in front of it, from
// the operand text.
func split(text string) (string, string) {
	var words []string
	rest := text
	for rest != "" {
		word, after, _ := strings.Cut(rest, " ")
		words = append(words, word)
		rest = after
		if !prefixWords[word] && !strings.HasPrefix(word, "rex") {
			break
		}
	}
	if word, after, _ := strings.Cut(rest, " "); word == "far" {
		words = append(words, word)
		rest = after
	}
	return strings.Join(words, " "), rest
}

// spaceCommas puts a space after every operand separator, leaving the
// commas inside AT&T memory references alone.
func spaceCommas(s string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(':
			depth++
		case ')':
			depth--
		}
		b.WriteByte(c)
		if c == ',' && depth == 0 && i+1 < len(s) && s[i+1] != ' ' {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

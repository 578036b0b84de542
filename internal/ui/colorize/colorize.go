// Package colorize highlights listings with chroma, picking the assembly
// lexer that matches the decoder architecture and syntax.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"dissect/internal/disasm"
)

// Enabled reports whether colour output is allowed. Setting
// DISSECT_NO_COLOR to any value turns it off.
func Enabled() bool {
	return os.Getenv("DISSECT_NO_COLOR") == ""
}

// lexerNames lists candidate lexers per architecture, best first.
func lexerNames(a disasm.Arch, s disasm.Syntax) []string {
	switch a {
	case disasm.ArchARM, disasm.ArchARM64:
		return []string{"armasm", "gas"}
	case disasm.ArchX86:
		if s == disasm.SyntaxATT {
			return []string{"gas", "nasm"}
		}
		return []string{"nasm", "gas"}
	}
	return []string{"gas"}
}

// Lexer returns the assembly lexer for a listing, or nil when chroma has
// none registered.
func Lexer(a disasm.Arch, s disasm.Syntax) chroma.Lexer {
	for _, name := range lexerNames(a, s) {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

func disasmStyle() *chroma.Style {
	for _, name := range []string{DisasmDark.Name, "dracula", "monokai"} {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

func terminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Listing highlights a block of assembly text.
func Listing(a disasm.Arch, s disasm.Syntax, code string) (string, error) {
	if !Enabled() {
		return code, nil
	}
	lexer := Lexer(a, s)
	if lexer == nil {
		return code, nil
	}

	// Lexers see newline-terminated input; the added newline is the last
	// one in the output and is cut again below.
	src := code
	trim := !strings.HasSuffix(code, "\n")
	if trim {
		src += "\n"
	}
	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return code, err
	}
	var buf strings.Builder
	if err := terminalFormatter().Format(&buf, disasmStyle(), iterator); err != nil {
		return code, err
	}
	out := buf.String()
	if i := strings.LastIndexByte(out, '\n'); trim && i >= 0 {
		out = out[:i] + out[i+1:]
	}
	return out, nil
}

// Line highlights one listing row of the form "addr: bytes  text". The
// address and byte columns are dimmed and the instruction text goes
// through the lexer. Label and blank rows pass through the lexer whole.
func Line(a disasm.Arch, s disasm.Syntax, line string) string {
	if !Enabled() {
		return line
	}
	head, text, ok := splitRow(line)
	if !ok {
		out, _ := Listing(a, s, line)
		return out
	}
	out, err := Listing(a, s, text)
	if err != nil {
		out = text
	}
	return fmt.Sprintf("\033[38;2;110;110;120m%s\033[0m%s", head, out)
}

// splitRow separates the address and byte columns from the instruction
// text. The columns end after the byte field's padding.
func splitRow(line string) (head, text string, ok bool) {
	colon := strings.Index(line, ":  ")
	if colon < 0 || strings.TrimSpace(line[:colon]) == "" {
		return "", "", false
	}
	for _, ch := range strings.TrimSpace(line[:colon]) {
		if !isHexChar(ch) {
			return "", "", false
		}
	}
	rest := line[colon+3:]
	sp := strings.IndexByte(rest, ' ')
	if sp < 0 {
		return "", "", false
	}
	i := sp
	for i < len(rest) && rest[i] == ' ' {
		i++
	}
	cut := colon + 3 + i
	return line[:cut], line[cut:], true
}

func isHexChar(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

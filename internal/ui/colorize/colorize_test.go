package colorize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dissect/internal/disasm"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestLexer(t *testing.T) {
	tests := []struct {
		arch   disasm.Arch
		syntax disasm.Syntax
		want   string
	}{
		{disasm.ArchARM, disasm.SyntaxDefault, "ArmAsm"},
		{disasm.ArchARM64, disasm.SyntaxDefault, "ArmAsm"},
		{disasm.ArchX86, disasm.SyntaxIntel, "NASM"},
		{disasm.ArchX86, disasm.SyntaxATT, "GAS"},
		{disasm.ArchMIPS, disasm.SyntaxDefault, "GAS"},
		{disasm.ArchPPC, disasm.SyntaxNoRegName, "GAS"},
	}
	for _, tt := range tests {
		t.Run(tt.arch.String(), func(t *testing.T) {
			lexer := Lexer(tt.arch, tt.syntax)
			require.NotNil(t, lexer)
			assert.Equal(t, tt.want, lexer.Config().Name)
		})
	}
}

func TestLinePreservesText(t *testing.T) {
	t.Setenv("DISSECT_NO_COLOR", "")
	lines := []string{
		"    1000:  e800000000               call 0x1005                                   ; sub_1005",
		"    1008:  c3                       ret",
		"entry:",
		"",
	}
	for _, line := range lines {
		out := Line(disasm.ArchX86, disasm.SyntaxIntel, line)
		assert.Equal(t, line, ansi.ReplaceAllString(out, ""))
	}
	out := Line(disasm.ArchARM, disasm.SyntaxDefault, "    1000:  0000a0e1                 mov r0, r0")
	assert.Contains(t, out, "\x1b[")
	assert.Equal(t, "    1000:  0000a0e1                 mov r0, r0", ansi.ReplaceAllString(out, ""))
}

func TestDisabled(t *testing.T) {
	t.Setenv("DISSECT_NO_COLOR", "1")
	assert.False(t, Enabled())
	line := "    1008:  c3                       ret"
	assert.Equal(t, line, Line(disasm.ArchX86, disasm.SyntaxIntel, line))

	out, err := Listing(disasm.ArchPPC, disasm.SyntaxDefault, "blr\n")
	require.NoError(t, err)
	assert.Equal(t, "blr\n", out)
}

func TestSplitRow(t *testing.T) {
	head, text, ok := splitRow("    1008:  c3                       ret")
	require.True(t, ok)
	assert.Equal(t, "    1008:  c3                       ", head)
	assert.Equal(t, "ret", text)

	_, _, ok = splitRow("entry:")
	assert.False(t, ok)
	_, _, ok = splitRow("zz:  c3 ret")
	assert.False(t, ok)
}

package mips

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

func le(x uint32) []byte { return binary.LittleEndian.AppendUint32(nil, x) }

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		word     uint32
		addr     uint64
		mode     disasm.Mode
		syntax   disasm.Syntax
		mnemonic string
		opStr    string
	}{
		{"nop", 0x00000000, 0, disasm.Mode32, 0, "nop", ""},
		{"addiu negative", 0x27BDFFE0, 0, disasm.Mode32, 0, "addiu", "$sp, $sp, -0x20"},
		{"lw", 0x8FBF001C, 0, disasm.Mode32, 0, "lw", "$ra, 0x1c($sp)"},
		{"sw", 0xAFBF001C, 0, disasm.Mode32, 0, "sw", "$ra, 0x1c($sp)"},
		{"jr ra", 0x03E00008, 0, disasm.Mode32, 0, "jr", "$ra"},
		{"jal", 0x0C100040, 0x400000, disasm.Mode32, 0, "jal", "0x400100"},
		{"beq", 0x10850003, 0x1000, disasm.Mode32, 0, "beq", "$a0, $a1, 0x1010"},
		{"b alias", 0x1000FFFF, 0x1000, disasm.Mode32, 0, "b", "0x1000"},
		{"beqz alias", 0x10800002, 0x2000, disasm.Mode32, 0, "beqz", "$a0, 0x200c"},
		{"move alias", 0x00801025, 0, disasm.Mode32, 0, "move", "$v0, $a0"},
		{"mult", 0x00850018, 0, disasm.Mode32, 0, "mult", "$a0, $a1"},
		{"lui", 0x3C011234, 0, disasm.Mode32, 0, "lui", "$at, 0x1234"},
		{"ori small", 0x34210005, 0, disasm.Mode32, 0, "ori", "$at, $at, 5"},
		{"sll", 0x00021080, 0, disasm.Mode32, 0, "sll", "$v0, $v0, 2"},
		{"syscall", 0x0000000C, 0, disasm.Mode32, 0, "syscall", ""},
		{"add.s", 0x46041000, 0, disasm.Mode32, 0, "add.s", "$f0, $f2, $f4"},
		{"c.eq.d", 0x46221032, 0, disasm.Mode32, 0, "c.eq.d", "$fcc0, $f2, $f2"},
		{"mfc0", 0x40086000, 0, disasm.Mode32, 0, "mfc0", "$t0, $12, 0"},
		{"ext", 0x7C8219C0, 0, disasm.Mode32, 0, "ext", "$v0, $a0, 7, 4"},
		{"daddu 64", 0x0085102D, 0, disasm.Mode64, 0, "daddu", "$v0, $a0, $a1"},
		{"ld 64", 0xDFBF0008, 0, disasm.Mode64, 0, "ld", "$ra, 8($sp)"},
		{"noregname", 0x27BDFFE0, 0, disasm.Mode32, disasm.SyntaxNoRegName, "addiu", "$29, $29, -0x20"},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode(le(tt.word), tt.addr, tt.mode, tt.syntax)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Size)
			assert.Equal(t, tt.mnemonic, got.Mnemonic)
			assert.Equal(t, tt.opStr, got.OpStr)
			assert.Equal(t, disasm.ArchMIPS, got.Operands.Arch())
		})
	}
}

func TestDecodeBigEndian(t *testing.T) {
	code := binary.BigEndian.AppendUint32(nil, 0x27BDFFE0)
	got, err := New().Decode(code, 0, disasm.Mode32|disasm.ModeBigEndian, disasm.SyntaxDefault)
	require.NoError(t, err)
	assert.Equal(t, "addiu", got.Mnemonic)
	assert.Equal(t, "$sp, $sp, -0x20", got.OpStr)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		mode disasm.Mode
		want error
	}{
		{"short", []byte{0, 0, 0}, disasm.Mode32, arch.ErrShort},
		{"empty", nil, disasm.Mode32, arch.ErrShort},
		{"64-bit op in 32-bit mode", le(0x0085102D), disasm.Mode32, arch.ErrInvalid},
		{"ld in 32-bit mode", le(0xDFBF0008), disasm.Mode32, arch.ErrInvalid},
		{"reserved special funct", le(0x00000005), disasm.Mode32, arch.ErrInvalid},
		{"cop2", le(0x48000000), disasm.Mode32, arch.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Decode(tt.code, 0, tt.mode, disasm.SyntaxDefault)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEffects(t *testing.T) {
	d := New()

	jal, err := d.Decode(le(0x0C100040), 0x400000, disasm.Mode32, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{RegRA}, jal.Effects.Write)
	assert.Equal(t, []uint{disasm.GroupCall}, jal.Effects.Groups)

	mult, err := d.Decode(le(0x00850018), 0, disasm.Mode32, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{RegHI, RegLO}, mult.Effects.Write)
	assert.Empty(t, mult.Effects.Read)

	beq, err := d.Decode(le(0x10850003), 0, disasm.Mode32, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{disasm.GroupJump, disasm.GroupBranchRelative}, beq.Effects.Groups)

	daddu, err := d.Decode(le(0x0085102D), 0, disasm.Mode64, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{GroupMIPS64}, daddu.Effects.Groups)

	adds, err := d.Decode(le(0x46041000), 0, disasm.Mode32, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint{GroupFPU}, adds.Effects.Groups)
}

func TestJALRLink(t *testing.T) {
	tests := []struct {
		name    string
		word    uint32
		opStr   string
		implied []uint
		write   []uint
	}{
		{"default link", 0x0120F809, "$t1", []uint{RegRA}, []uint{RegRA}},
		{"explicit link", 0x01204009, "$t0, $t1", nil, []uint{RegT0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Decode(le(tt.word), 0, disasm.Mode32, 0)
			require.NoError(t, err)
			assert.Equal(t, "jalr", got.Mnemonic)
			assert.Equal(t, tt.opStr, got.OpStr)
			assert.Equal(t, tt.implied, got.Effects.Write)
			assert.Equal(t, []uint{disasm.GroupCall}, got.Effects.Groups)

			read, write := disasm.OperandRegs(got.Operands)
			assert.Equal(t, []uint{RegT1}, read)
			assert.Equal(t, tt.write, arch.Canonical(append(write, got.Effects.Write...)))
		})
	}
}

func TestOperands(t *testing.T) {
	got, err := New().Decode(le(0x8FBF001C), 0, disasm.Mode32, 0)
	require.NoError(t, err)
	ops, ok := got.Operands.(*disasm.MIPSOperands)
	require.True(t, ok)
	require.Len(t, ops.Operands, 2)
	assert.Equal(t, disasm.MIPSOperand{Type: disasm.OpReg, Reg: RegRA, Access: disasm.AccessWrite}, ops.Operands[0])
	assert.Equal(t, disasm.OpMem, ops.Operands[1].Type)
	assert.Equal(t, disasm.MIPSMem{Base: RegSP, Disp: 0x1c}, ops.Operands[1].Mem)

	read, write := disasm.OperandRegs(ops)
	assert.Equal(t, []uint{RegSP}, read)
	assert.Equal(t, []uint{RegRA}, write)
}

func TestNames(t *testing.T) {
	d := New()
	tests := []struct {
		id   uint
		want string
	}{
		{RegZero, "zero"},
		{RegSP, "sp"},
		{RegRA, "ra"},
		{RegF0 + 12, "f12"},
		{RegHI, "hi"},
		{RegFCC0 + 7, "fcc7"},
	}
	for _, tt := range tests {
		got, ok := d.RegName(tt.id)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
	_, ok := d.RegName(RegInvalid)
	assert.False(t, ok)
	_, ok = d.RegName(regMax + 1)
	assert.False(t, ok)

	name, ok := d.InsnName(uint(C_EQ_S))
	assert.True(t, ok)
	assert.Equal(t, "c.eq.s", name)
	_, ok = d.InsnName(uint(opMax))
	assert.False(t, ok)

	g, ok := d.GroupName(GroupMIPS64)
	assert.True(t, ok)
	assert.Equal(t, "mips64", g)
}

func TestValidateMode(t *testing.T) {
	d := New()
	for _, m := range []disasm.Mode{0, disasm.Mode32, disasm.Mode64, disasm.ModeN64, disasm.Mode32 | disasm.ModeBigEndian} {
		assert.NoError(t, d.ValidateMode(m), "mode %s", m)
	}
	for _, m := range []disasm.Mode{disasm.ModeMicro, disasm.Mode16, disasm.Mode32 | disasm.Mode64} {
		assert.ErrorIs(t, d.ValidateMode(m), disasm.ErrMode, "mode %s", m)
	}
	assert.ErrorIs(t, d.ValidateSyntax(disasm.SyntaxATT), disasm.ErrOption)
}

// Every table entry must decode its own value and round-trip its name.
func TestTableSelfConsistency(t *testing.T) {
	d := New()
	for _, f := range instFormats {
		is64 := f.flags&flag64 != 0
		mode := disasm.Mode32
		if is64 {
			mode = disasm.Mode64
		}
		got, err := d.Decode(le(f.value), 0, mode, 0)
		if f.form == fIns && err != nil {
			continue
		}
		if !assert.NoError(t, err, "%s %#08x", f.op, f.value) {
			continue
		}
		name, ok := d.InsnName(got.ID)
		assert.True(t, ok, "%s", f.op)
		assert.Equal(t, got.Mnemonic, name)
	}
}

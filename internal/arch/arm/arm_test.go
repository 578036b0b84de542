package arm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/arm/armasm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

func TestDecodeA32(t *testing.T) {
	tests := []struct {
		name     string
		code     []byte
		addr     uint64
		mnemonic string
		opStr    string
	}{
		{"nop move", []byte{0x00, 0x00, 0xa0, 0xe1}, 0x1000, "mov", "r0, r0"},
		{"push single", []byte{0x04, 0x40, 0x2d, 0xe5}, 0, "push", "{r4}"},
		{"conditional pop", []byte{0xbd, 0x81, 0xbd, 0x58}, 0, "poppl", "{r0, r2, r3, r4, r5, r7, r8, pc}"},
		{"shift by register", []byte{0x1e, 0x48, 0x91, 0xd0}, 0, "addsle", "r4, r1, lr, lsl r8"},
		{"long multiply", []byte{0x92, 0xb2, 0x8c, 0x70}, 0, "umullvc", "fp, ip, r2, r2"},
		{"strd writeback", []byte{0xf2, 0x40, 0x29, 0xe1}, 0, "strd", "r4, [sb, -r2]!"},
		{"ldrd zero offset", []byte{0xd0, 0x60, 0xc8, 0xe1}, 0, "ldrd", "r6, [r8]"},
		{"ldrd post index", []byte{0xd0, 0x62, 0x48, 0xe0}, 0, "ldrd", "r6, [r8], #-0x20"},
		{"str pre index", []byte{0xde, 0xbf, 0xa0, 0xe5}, 0, "str", "fp, [r0, #0xfde]!"},
		{"literal load", []byte{0x04, 0x00, 0x9f, 0xe5}, 0, "ldr", "r0, [pc, #4]"},
		{"bl", []byte{0xfe, 0x03, 0x00, 0xeb}, 0x1000, "bl", "#0x2000"},
		{"bx lr", []byte{0x1e, 0xff, 0x2f, 0xe1}, 0, "bx", "lr"},
		{"svc", []byte{0x00, 0x00, 0x00, 0xef}, 0, "svc", "#0"},
		{"cmp", []byte{0x00, 0x00, 0x50, 0xe3}, 0, "cmp", "r0, #0"},
		{"moveq", []byte{0x01, 0x00, 0xa0, 0x01}, 0, "moveq", "r0, r1"},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode(tt.code, tt.addr, disasm.ModeARM, disasm.SyntaxDefault)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Size)
			assert.Equal(t, tt.mnemonic, got.Mnemonic)
			assert.Equal(t, tt.opStr, got.OpStr)
		})
	}
}

func TestDecodeA32BigEndian(t *testing.T) {
	got, err := New().Decode([]byte{0xe1, 0xa0, 0x00, 0x00}, 0, disasm.ModeARM|disasm.ModeBigEndian, 0)
	require.NoError(t, err)
	assert.Equal(t, "mov", got.Mnemonic)
	assert.Equal(t, "r0, r0", got.OpStr)
}

func TestDecodeThumb(t *testing.T) {
	tests := []struct {
		name     string
		code     []byte
		addr     uint64
		size     int
		mnemonic string
		opStr    string
	}{
		{"bx lr", []byte{0x70, 0x47}, 0, 2, "bx", "lr"},
		{"push", []byte{0x10, 0xb5}, 0, 2, "push", "{r4, lr}"},
		{"pop", []byte{0x10, 0xbd}, 0, 2, "pop", "{r4, pc}"},
		{"movs imm", []byte{0x01, 0x20}, 0, 2, "movs", "r0, #1"},
		{"adds reg", []byte{0x40, 0x18}, 0, 2, "adds", "r0, r0, r1"},
		{"ldr imm", []byte{0x48, 0x68}, 0, 2, "ldr", "r0, [r1, #4]"},
		{"ldr sp", []byte{0x01, 0x98}, 0, 2, "ldr", "r0, [sp, #4]"},
		{"str reg", []byte{0x48, 0x50}, 0, 2, "str", "r0, [r1, r1]"},
		{"lsls", []byte{0x88, 0x00}, 0, 2, "lsls", "r0, r1, #2"},
		{"rsbs", []byte{0x48, 0x42}, 0, 2, "rsbs", "r0, r1, #0"},
		{"add sp", []byte{0x02, 0xb0}, 0, 2, "add", "sp, #8"},
		{"sub sp", []byte{0x82, 0xb0}, 0, 2, "sub", "sp, #8"},
		{"beq", []byte{0xfe, 0xd0}, 0x1000, 2, "beq", "#0x1000"},
		{"b", []byte{0xfe, 0xe7}, 0x1000, 2, "b", "#0x1000"},
		{"bl pair", []byte{0x00, 0xf0, 0x00, 0xf8}, 0x1000, 4, "bl", "#0x1004"},
		{"svc", []byte{0x00, 0xdf}, 0, 2, "svc", "#0"},
		{"nop", []byte{0x00, 0xbf}, 0, 2, "nop", ""},
		{"it", []byte{0x08, 0xbf}, 0, 2, "it", "eq"},
		{"itt", []byte{0x04, 0xbf}, 0, 2, "itt", "eq"},
		{"ite", []byte{0x0c, 0xbf}, 0, 2, "ite", "eq"},
		{"stm", []byte{0x06, 0xc0}, 0, 2, "stm", "r0!, {r1, r2}"},
		{"cpsid", []byte{0x72, 0xb6}, 0, 2, "cpsid", "i"},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode(tt.code, tt.addr, disasm.ModeThumb, disasm.SyntaxDefault)
			require.NoError(t, err)
			assert.Equal(t, tt.size, got.Size)
			assert.Equal(t, tt.mnemonic, got.Mnemonic)
			assert.Equal(t, tt.opStr, got.OpStr)
			assert.GreaterOrEqual(t, got.ID, uint(ThumbBase))
		})
	}
}

func TestDecodeThumbRejects(t *testing.T) {
	tests := []struct {
		name string
		code []byte
		want error
	}{
		{"empty", nil, arch.ErrShort},
		{"odd byte", []byte{0x70}, arch.ErrShort},
		{"half of a pair", []byte{0x00, 0xf0}, arch.ErrShort},
		{"thumb2 load", []byte{0xd0, 0xf8, 0x00, 0x00}, arch.ErrInvalid},
		{"empty push", []byte{0x00, 0xb4}, arch.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Decode(tt.code, 0, disasm.ModeThumb, 0)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEffects(t *testing.T) {
	d := New()
	decode := func(code []byte, mode disasm.Mode) arch.Decoded {
		t.Helper()
		got, err := d.Decode(code, 0x1000, mode, 0)
		require.NoError(t, err)
		return got
	}

	bl := decode([]byte{0xfe, 0x03, 0x00, 0xeb}, disasm.ModeARM)
	assert.Equal(t, []uint{RegLR}, bl.Effects.Write)
	assert.Equal(t, []uint{disasm.GroupCall, disasm.GroupBranchRelative}, bl.Effects.Groups)

	bxlr := decode([]byte{0x1e, 0xff, 0x2f, 0xe1}, disasm.ModeARM)
	assert.Equal(t, []uint{disasm.GroupJump, disasm.GroupRet}, bxlr.Effects.Groups)

	cmp := decode([]byte{0x00, 0x00, 0x50, 0xe3}, disasm.ModeARM)
	assert.Equal(t, []uint{RegCPSR}, cmp.Effects.Write)
	assert.True(t, cmp.Operands.(*disasm.ARMOperands).UpdateFlags)

	moveq := decode([]byte{0x01, 0x00, 0xa0, 0x01}, disasm.ModeARM)
	assert.Equal(t, []uint{RegCPSR}, moveq.Effects.Read)
	assert.Equal(t, disasm.ARMCondEQ, moveq.Operands.(*disasm.ARMOperands).CC)

	pop := decode([]byte{0xbd, 0x81, 0xbd, 0x58}, disasm.ModeARM)
	assert.Equal(t, []uint{RegSP, RegCPSR}, pop.Effects.Read)
	assert.Equal(t, []uint{disasm.GroupJump, disasm.GroupRet}, pop.Effects.Groups)

	push := decode([]byte{0x10, 0xb5}, disasm.ModeThumb)
	assert.Equal(t, []uint{RegSP}, push.Effects.Read)
	assert.Equal(t, []uint{RegSP}, push.Effects.Write)

	beq := decode([]byte{0xfe, 0xd0}, disasm.ModeThumb)
	assert.Equal(t, []uint{RegCPSR}, beq.Effects.Read)
	assert.Equal(t, []uint{disasm.GroupJump, disasm.GroupBranchRelative}, beq.Effects.Groups)

	adds := decode([]byte{0x40, 0x18}, disasm.ModeThumb)
	assert.Equal(t, []uint{RegCPSR}, adds.Effects.Write)
	assert.Empty(t, adds.Effects.Read)
}

func TestOperands(t *testing.T) {
	got, err := New().Decode([]byte{0xde, 0xbf, 0xa0, 0xe5}, 0, disasm.ModeARM, 0)
	require.NoError(t, err)
	ops := got.Operands.(*disasm.ARMOperands)
	assert.True(t, ops.Writeback)
	assert.Equal(t, disasm.ARMCondAL, ops.CC)
	require.Len(t, ops.Operands, 2)
	assert.Equal(t, disasm.ARMOperand{Type: disasm.OpReg, Reg: RegFP, Access: disasm.AccessRead}, ops.Operands[0])
	assert.Equal(t, disasm.ARMOperand{
		Type:   disasm.OpMem,
		Mem:    disasm.ARMMem{Base: RegR0, Disp: 4062},
		Access: disasm.AccessWrite,
	}, ops.Operands[1])

	read, write := disasm.OperandRegs(ops)
	assert.ElementsMatch(t, []uint{RegFP, RegR0}, read)
	assert.Equal(t, []uint{RegR0}, write)

	push, err := New().Decode([]byte{0x10, 0xb5}, 0, disasm.ModeThumb, 0)
	require.NoError(t, err)
	pops := push.Operands.(*disasm.ARMOperands)
	require.Len(t, pops.Operands, 2)
	assert.Equal(t, RegR0+4, pops.Operands[0].Reg)
	assert.Equal(t, RegLR, pops.Operands[1].Reg)
}

func TestNoRegName(t *testing.T) {
	got, err := New().Decode([]byte{0x10, 0xb5}, 0, disasm.ModeThumb, disasm.SyntaxNoRegName)
	require.NoError(t, err)
	assert.Equal(t, "{r4, r14}", got.OpStr)

	got, err = New().Decode([]byte{0x92, 0xb2, 0x8c, 0x70}, 0, disasm.ModeARM, disasm.SyntaxNoRegName)
	require.NoError(t, err)
	assert.Equal(t, "r11, r12, r2, r2", got.OpStr)

	got, err = New().Decode([]byte{0xf2, 0x40, 0x29, 0xe1}, 0, disasm.ModeARM, disasm.SyntaxNoRegName)
	require.NoError(t, err)
	assert.Equal(t, "r4, [r9, -r2]!", got.OpStr)
}

func TestNames(t *testing.T) {
	d := New()
	for id, want := range map[uint]string{
		RegR0:       "r0",
		RegSB:       "sb",
		RegSP:       "sp",
		RegPC:       "pc",
		RegS0 + 3:   "s3",
		RegD0 + 31:  "d31",
		RegFPSCR:    "fpscr",
		RegAPSRNZCV: "apsr_nzcv",
		RegCPSR:     "cpsr",
	} {
		got, ok := d.RegName(id)
		assert.True(t, ok, "reg %d", id)
		assert.Equal(t, want, got)
	}
	_, ok := d.RegName(RegInvalid)
	assert.False(t, ok)

	name, ok := d.InsnName(uint(armasm.MOV_EQ) + 14)
	assert.True(t, ok)
	assert.Equal(t, "mov", name)
	name, ok = d.InsnName(uint(armasm.ADD_S_EQ) + 1)
	assert.True(t, ok)
	assert.Equal(t, "addsne", name)
	name, ok = d.InsnName(ThumbBase + uint(tPUSH))
	assert.True(t, ok)
	assert.Equal(t, "push", name)
	_, ok = d.InsnName(0)
	assert.False(t, ok)
	_, ok = d.InsnName(ThumbBase + uint(tMax))
	assert.False(t, ok)

	g, ok := d.GroupName(disasm.GroupBranchRelative)
	assert.True(t, ok)
	assert.Equal(t, "branch_relative", g)
}

func TestValidateMode(t *testing.T) {
	d := New()
	for _, m := range []disasm.Mode{disasm.ModeARM, disasm.ModeThumb, disasm.Mode32, disasm.ModeThumb | disasm.ModeBigEndian} {
		assert.NoError(t, d.ValidateMode(m), "mode %s", m)
	}
	for _, m := range []disasm.Mode{disasm.Mode16, disasm.Mode64, disasm.ModeN64} {
		assert.ErrorIs(t, d.ValidateMode(m), disasm.ErrMode, "mode %s", m)
	}
	assert.ErrorIs(t, d.ValidateSyntax(disasm.SyntaxIntel), disasm.ErrOption)
}

func TestThumbTableNames(t *testing.T) {
	for op := tOp(1); op < tMax; op++ {
		name, ok := thumbName(ThumbBase + uint(op))
		assert.True(t, ok)
		assert.NotEmpty(t, name)
	}
}

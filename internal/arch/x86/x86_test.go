package x86

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		addr     uint64
		mode     disasm.Mode
		syntax   disasm.Syntax
		size     int
		mnemonic string
		opStr    string
	}{
		{"sub mem", "482b11", 0, disasm.Mode64, disasm.SyntaxIntel, 3, "sub", "rdx, qword ptr [rcx]"},
		{"push", "4850", 0, disasm.Mode64, disasm.SyntaxIntel, 2, "push", "rax"},
		{"mov imm", "b811223344", 0, disasm.Mode32, disasm.SyntaxDefault, 5, "mov", "eax, 0x44332211"},
		{"mov 16", "b81122", 0, disasm.Mode16, disasm.SyntaxIntel, 3, "mov", "ax, 0x2211"},
		{"ret", "c3", 0, disasm.Mode64, disasm.SyntaxIntel, 1, "ret", ""},
		{"int3", "cc", 0, disasm.Mode64, disasm.SyntaxIntel, 1, "int3", ""},
		{"syscall", "0f05", 0, disasm.Mode64, disasm.SyntaxIntel, 2, "syscall", ""},
		{"jmp short", "eb11", 0x1000, disasm.Mode64, disasm.SyntaxIntel, 2, "jmp", "0x1013"},
		{"jmp at zero", "eb11", 0, disasm.Mode64, disasm.SyntaxIntel, 2, "jmp", "0x13"},
		{"jz", "7411", 0x1000, disasm.Mode32, disasm.SyntaxIntel, 2, "jz", "0x1013"},
		{"call", "e811223344", 0x1000, disasm.Mode32, disasm.SyntaxIntel, 5, "call", "0x44333216"},
		{"rep movsb", "f3a4", 0, disasm.Mode32, disasm.SyntaxIntel, 2, "rep movsb", "byte ptr [edi], byte ptr [esi]"},
		{"lea", "488d11", 0, disasm.Mode64, disasm.SyntaxIntel, 3, "lea", "rdx, ptr [rcx]"},
		{"att sub", "482b11", 0, disasm.Mode64, disasm.SyntaxATT, 3, "sub", "(%rcx), %rdx"},
		{"att push", "4850", 0, disasm.Mode64, disasm.SyntaxATT, 2, "push", "%rax"},
		{"att mov", "b811223344", 0, disasm.Mode64, disasm.SyntaxATT, 5, "mov", "$0x44332211, %eax"},
	}
	d := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Decode(hexBytes(t, tt.code), tt.addr, tt.mode, tt.syntax)
			require.NoError(t, err)
			assert.Equal(t, tt.size, got.Size)
			assert.Equal(t, tt.mnemonic, got.Mnemonic)
			assert.Equal(t, tt.opStr, got.OpStr)
			assert.Equal(t, disasm.ArchX86, got.Operands.Arch())
		})
	}
}

func TestDecodeRejects(t *testing.T) {
	d := New()
	tests := []struct {
		name string
		code string
		mode disasm.Mode
		want error
	}{
		{"empty", "", disasm.Mode32, arch.ErrShort},
		{"truncated imm", "b81122", disasm.Mode32, arch.ErrShort},
		{"truncated modrm", "8b", disasm.Mode32, arch.ErrShort},
		{"syscall in 32-bit", "0f05", disasm.Mode32, arch.ErrInvalid},
		{"no width", "90", 0, arch.ErrInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(hexBytes(t, tt.code), 0, tt.mode, disasm.SyntaxIntel)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEffects(t *testing.T) {
	d := New()
	decode := func(code string, addr uint64, mode disasm.Mode) arch.Decoded {
		got, err := d.Decode(hexBytes(t, code), addr, mode, disasm.SyntaxIntel)
		require.NoError(t, err)
		return got
	}

	push := decode("4850", 0, disasm.Mode64)
	assert.Equal(t, []uint{uint(x86asm.RSP)}, push.Effects.Read)
	assert.Equal(t, []uint{uint(x86asm.RSP)}, push.Effects.Write)
	assert.Contains(t, push.Effects.Groups, GroupMode64)

	push32 := decode("55", 0, disasm.Mode32)
	assert.Equal(t, []uint{uint(x86asm.ESP)}, push32.Effects.Read)

	call := decode("e811223344", 0x1000, disasm.Mode32)
	assert.Equal(t, []uint{uint(x86asm.ESP), uint(x86asm.EIP)}, call.Effects.Read)
	assert.Equal(t, []uint{uint(x86asm.ESP)}, call.Effects.Write)
	assert.Equal(t, []uint{disasm.GroupCall, disasm.GroupBranchRelative}, call.Effects.Groups)

	jz := decode("7411", 0x1000, disasm.Mode32)
	assert.Equal(t, []uint{RegEFLAGS}, jz.Effects.Read)
	assert.Equal(t, []uint{disasm.GroupJump, disasm.GroupBranchRelative}, jz.Effects.Groups)

	sub := decode("482b11", 0, disasm.Mode64)
	assert.Equal(t, []uint{RegEFLAGS}, sub.Effects.Write)

	rep := decode("f3a4", 0, disasm.Mode32)
	want := []uint{uint(x86asm.ECX), uint(x86asm.ESI), uint(x86asm.EDI)}
	assert.Equal(t, want, rep.Effects.Read)
	assert.Equal(t, want, rep.Effects.Write)

	cpuid := decode("0fa2", 0, disasm.Mode32)
	assert.Equal(t, []uint{uint(x86asm.EAX), uint(x86asm.ECX)}, cpuid.Effects.Read)
	assert.Equal(t, []uint{uint(x86asm.EAX), uint(x86asm.ECX), uint(x86asm.EDX), uint(x86asm.EBX)}, cpuid.Effects.Write)

	assert.Equal(t, []uint{disasm.GroupInt}, decode("0f05", 0, disasm.Mode64).Effects.Groups)
	assert.Equal(t, []uint{disasm.GroupRet}, decode("c3", 0, disasm.Mode32).Effects.Groups)
	assert.Equal(t, []uint{disasm.GroupPrivilege}, decode("f4", 0, disasm.Mode32).Effects.Groups)
}

func TestOperands(t *testing.T) {
	d := New()
	decode := func(code string, addr uint64, mode disasm.Mode) *disasm.X86Operands {
		got, err := d.Decode(hexBytes(t, code), addr, mode, disasm.SyntaxIntel)
		require.NoError(t, err)
		return got.Operands.(*disasm.X86Operands)
	}

	sub := decode("482b11", 0, disasm.Mode64)
	assert.Equal(t, []byte{0x48}, sub.Prefix)
	assert.Equal(t, []byte{0x2b}, sub.Opcode)
	assert.Equal(t, uint8(8), sub.OpSize)
	assert.Equal(t, uint8(8), sub.AddrSize)
	require.Len(t, sub.Operands, 2)
	assert.Equal(t, disasm.X86Operand{
		Type:   disasm.OpReg,
		Reg:    uint(x86asm.RDX),
		Size:   8,
		Access: disasm.AccessRead | disasm.AccessWrite,
	}, sub.Operands[0])
	assert.Equal(t, disasm.X86Operand{
		Type:   disasm.OpMem,
		Mem:    disasm.X86Mem{Base: uint(x86asm.RCX), Scale: 1},
		Size:   8,
		Access: disasm.AccessRead,
	}, sub.Operands[1])

	read, write := disasm.OperandRegs(sub)
	assert.Equal(t, []uint{uint(x86asm.RDX), uint(x86asm.RCX)}, read)
	assert.Equal(t, []uint{uint(x86asm.RDX)}, write)

	mov := decode("b811223344", 0, disasm.Mode32)
	require.Len(t, mov.Operands, 2)
	assert.Equal(t, disasm.AccessWrite, mov.Operands[0].Access)
	assert.Equal(t, int64(0x44332211), mov.Operands[1].Imm)

	jmp := decode("eb11", 0x1000, disasm.Mode64)
	require.Len(t, jmp.Operands, 1)
	assert.Equal(t, disasm.OpImm, jmp.Operands[0].Type)
	assert.Equal(t, int64(0x1013), jmp.Operands[0].Imm)

	cpuid := decode("0fa2", 0, disasm.Mode32)
	assert.Equal(t, []byte{0x0f, 0xa2}, cpuid.Opcode)
	assert.Empty(t, cpuid.Operands)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		text, mnemonic, opStr string
	}{
		{"mov eax, ebx", "mov", "eax, ebx"},
		{"ret", "ret", ""},
		{"lock xadd dword ptr [eax], ecx", "lock xadd", "dword ptr [eax], ecx"},
		{"rep stosd dword ptr [edi]", "rep stosd", "dword ptr [edi]"},
		{"call far ptr [eax]", "call far", "ptr [eax]"},
		{"rex.W push %rax", "rex.W push", "%rax"},
	}
	for _, tt := range tests {
		m, o := split(tt.text)
		assert.Equal(t, tt.mnemonic, m, tt.text)
		assert.Equal(t, tt.opStr, o, tt.text)
	}
}

func TestSpaceCommas(t *testing.T) {
	assert.Equal(t, "%ds:(%esi), %es:(%edi)", spaceCommas("%ds:(%esi),%es:(%edi)"))
	assert.Equal(t, "0x4(%eax,%ebx,4), %ecx", spaceCommas("0x4(%eax,%ebx,4),%ecx"))
	assert.Equal(t, "%eax, %ebx", spaceCommas("%eax, %ebx"))
}

func TestNames(t *testing.T) {
	d := New()
	for id, want := range map[uint]string{
		RegEAX:           "eax",
		RegRAX:           "rax",
		RegAL:            "al",
		RegRIP:           "rip",
		RegEFLAGS:        "eflags",
		RegST0 + 3:       "st3",
		RegMM0 + 1:       "mmx1",
		RegXMM0 + 15:     "xmm15",
		uint(x86asm.R9L): "r9d",
		uint(x86asm.R9B): "r9b",
		uint(x86asm.SIB): "sil",
		RegES:            "es",
		RegCR0:           "cr0",
	} {
		got, ok := d.RegName(id)
		assert.True(t, ok, id)
		assert.Equal(t, want, got)
	}
	_, ok := d.RegName(RegInvalid)
	assert.False(t, ok)
	_, ok = d.RegName(regLibMax + 1)
	assert.False(t, ok)

	name, ok := d.InsnName(uint(x86asm.CPUID))
	assert.True(t, ok)
	assert.Equal(t, "cpuid", name)
	_, ok = d.InsnName(0)
	assert.False(t, ok)

	name, ok = d.GroupName(GroupSSE)
	assert.True(t, ok)
	assert.Equal(t, "sse", name)
	name, ok = d.GroupName(disasm.GroupJump)
	assert.True(t, ok)
	assert.Equal(t, "jump", name)
}

func TestValidate(t *testing.T) {
	d := New()
	for _, m := range []disasm.Mode{disasm.Mode16, disasm.Mode32, disasm.Mode64, disasm.Mode32 | disasm.ModeThumb} {
		assert.NoError(t, d.ValidateMode(m), m)
	}
	for _, m := range []disasm.Mode{0, disasm.Mode32 | disasm.Mode64, disasm.Mode32 | disasm.ModeBigEndian} {
		assert.True(t, errors.Is(d.ValidateMode(m), disasm.ErrMode), m)
	}
	assert.Equal(t, disasm.SyntaxIntel, d.DefaultSyntax())
	assert.NoError(t, d.ValidateSyntax(disasm.SyntaxATT))
	assert.True(t, errors.Is(d.ValidateSyntax(disasm.SyntaxNoRegName), disasm.ErrOption))
}

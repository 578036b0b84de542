package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"

	"dissect/internal/arch/x86"
	"dissect/internal/disasm"
)

func TestNames(t *testing.T) {
	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)

	name, err := h.RegName(x86.RegRAX)
	require.NoError(t, err)
	assert.Equal(t, "rax", name)

	name, err = h.InsnName(uint(x86asm.RET))
	require.NoError(t, err)
	assert.Equal(t, "ret", name)

	name, err = h.GroupName(disasm.GroupCall)
	require.NoError(t, err)
	assert.Equal(t, "call", name)

	name, err = h.GroupName(x86.GroupSSE)
	require.NoError(t, err)
	assert.Equal(t, "sse", name)

	for _, id := range []uint{0, 0xFFFFF} {
		_, err = h.RegName(id)
		assert.True(t, errors.Is(err, disasm.ErrUnknownID), "reg %d", id)
		_, err = h.InsnName(id)
		assert.True(t, errors.Is(err, disasm.ErrUnknownID), "insn %d", id)
		_, err = h.GroupName(id)
		assert.True(t, errors.Is(err, disasm.ErrUnknownID), "group %d", id)
	}
}

func TestInsnQueries(t *testing.T) {
	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	require.NoError(t, h.SetDetail(true))
	s, err := h.Decode(hexBytes(t, "c3482b11"), 0, 0)
	require.NoError(t, err)
	require.Len(t, s, 2)
	ret, sub := &s[0], &s[1]

	ok, err := h.InsnGroup(ret, disasm.GroupRet)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.InsnGroup(ret, disasm.GroupCall)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.RegRead(ret, uint(x86asm.RSP))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.RegWrite(ret, uint(x86asm.RSP))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.RegWrite(sub, x86.RegEFLAGS)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = h.RegRead(sub, uint(x86asm.RCX))
	require.NoError(t, err)
	assert.False(t, ok, "operand registers are not implicit")

	read, write, err := h.RegsAccess(sub)
	require.NoError(t, err)
	assert.Equal(t, []uint{uint(x86asm.RCX), uint(x86asm.RDX)}, read)
	assert.Equal(t, []uint{uint(x86asm.RDX), x86.RegEFLAGS}, write)
}

func TestInsnQueriesNeedDetail(t *testing.T) {
	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	s, err := h.Decode(hexBytes(t, "c3"), 0, 0)
	require.NoError(t, err)
	require.Len(t, s, 1)

	_, err = h.InsnGroup(&s[0], disasm.GroupRet)
	assert.True(t, errors.Is(err, disasm.ErrDetail))
	_, err = h.RegRead(&s[0], uint(x86asm.RSP))
	assert.True(t, errors.Is(err, disasm.ErrDetail))
	_, err = h.RegWrite(&s[0], uint(x86asm.RSP))
	assert.True(t, errors.Is(err, disasm.ErrDetail))
	_, _, err = h.RegsAccess(&s[0])
	assert.True(t, errors.Is(err, disasm.ErrDetail))
}

func TestRegsAccessArchMismatch(t *testing.T) {
	x := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	require.NoError(t, x.SetDetail(true))
	s, err := x.Decode(hexBytes(t, "c3"), 0, 0)
	require.NoError(t, err)

	arm := mustOpen(t, disasm.ArchARM, disasm.ModeARM)
	_, _, err = arm.RegsAccess(&s[0])
	assert.True(t, errors.Is(err, disasm.ErrOption))
}

func TestReducedHandle(t *testing.T) {
	h, err := open(disasm.ArchX86, disasm.Mode64, true)
	require.NoError(t, err)
	defer h.Close()
	assert.True(t, h.Reduced())
	require.NoError(t, h.SetDetail(true))

	s, err := h.Decode(hexBytes(t, "482b11c3"), 0x1000, 0)
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, 4, s.Consumed())

	inst := &s[0]
	assert.True(t, inst.Reduced())
	assert.Equal(t, "", inst.Text())
	_, err = inst.Mnemonic()
	assert.True(t, errors.Is(err, disasm.ErrDiet))
	_, err = inst.OpStr()
	assert.True(t, errors.Is(err, disasm.ErrDiet))

	d, err := inst.Detail()
	require.NoError(t, err)
	ops, ok := d.Operands().(*disasm.X86Operands)
	require.True(t, ok)
	assert.Len(t, ops.Operands, 2)
	_, err = d.Groups()
	assert.True(t, errors.Is(err, disasm.ErrDiet))

	_, err = h.InsnGroup(inst, disasm.GroupRet)
	assert.True(t, errors.Is(err, disasm.ErrDiet))
	_, err = h.RegRead(inst, x86.RegEFLAGS)
	assert.True(t, errors.Is(err, disasm.ErrDiet))
	_, _, err = h.RegsAccess(inst)
	assert.True(t, errors.Is(err, disasm.ErrDiet))
	_, err = h.RegName(x86.RegRAX)
	assert.True(t, errors.Is(err, disasm.ErrDiet))
	_, err = h.InsnName(uint(x86asm.RET))
	assert.True(t, errors.Is(err, disasm.ErrDiet))
}

func TestVersion(t *testing.T) {
	major, minor := Version()
	assert.Equal(t, Major, major)
	assert.Equal(t, Minor, minor)

	assert.NoError(t, CheckVersion(Major, Minor+3))
	assert.True(t, errors.Is(CheckVersion(Major-1, 0), disasm.ErrVersion))
	assert.True(t, errors.Is(CheckVersion(Major+1, 0), disasm.ErrVersion))
}

func TestSupport(t *testing.T) {
	for _, a := range disasm.Archs() {
		assert.True(t, Support(int(a)), a.String())
	}
	assert.True(t, Support(SupportAll))
	assert.Equal(t, SupportsReducedBuild(), Support(SupportDiet))
	assert.False(t, Support(99))
	assert.False(t, Support(-1))
}

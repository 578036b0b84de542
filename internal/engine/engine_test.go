package engine

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"dissect/internal/disasm"
)

var cmpInst = cmp.AllowUnexported(disasm.Inst{}, disasm.Detail{})

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func mustOpen(t *testing.T, a disasm.Arch, m disasm.Mode) *Handle {
	t.Helper()
	h, err := Open(a, m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestOpenLegalModes(t *testing.T) {
	tests := []struct {
		arch  disasm.Arch
		modes []disasm.Mode
	}{
		{disasm.ArchARM, []disasm.Mode{disasm.ModeARM, disasm.ModeThumb, disasm.ModeBigEndian, disasm.ModeThumb | disasm.ModeBigEndian, disasm.Mode32}},
		{disasm.ArchARM64, []disasm.Mode{disasm.ModeLittleEndian, disasm.ModeBigEndian, disasm.Mode64}},
		{disasm.ArchMIPS, []disasm.Mode{disasm.Mode32, disasm.Mode64, disasm.Mode32 | disasm.ModeBigEndian, disasm.Mode64 | disasm.ModeBigEndian}},
		{disasm.ArchX86, []disasm.Mode{disasm.Mode16, disasm.Mode32, disasm.Mode64}},
		{disasm.ArchPPC, []disasm.Mode{disasm.ModeLittleEndian, disasm.ModeBigEndian, disasm.Mode64 | disasm.ModeBigEndian, disasm.Mode32}},
	}
	for _, tt := range tests {
		for _, m := range tt.modes {
			t.Run(tt.arch.String()+"/"+m.String(), func(t *testing.T) {
				h, err := Open(tt.arch, m)
				require.NoError(t, err)
				assert.Equal(t, tt.arch, h.Arch())
				assert.Equal(t, m, h.Mode())
				assert.False(t, h.Detail())
				n, err := h.MaxInsnSize()
				require.NoError(t, err)
				assert.Positive(t, n)
				require.NoError(t, h.Close())

				closed := []error{
					h.Close(),
					h.SetMode(m),
					h.SetSyntax(disasm.SyntaxDefault),
					h.SetDetail(true),
					h.Option(OptDetail, OptOff),
				}
				_, err = h.Decode([]byte{0, 0, 0, 0}, 0, 0)
				closed = append(closed, err)
				_, err = h.RegName(1)
				closed = append(closed, err)
				_, err = h.InsnName(1)
				closed = append(closed, err)
				_, err = h.MaxInsnSize()
				closed = append(closed, err)
				for i, err := range closed {
					assert.True(t, errors.Is(err, disasm.ErrHandle), "call %d: %v", i, err)
				}
			})
		}
	}
}

func TestOpenRejects(t *testing.T) {
	_, err := Open(disasm.Arch(99), 0)
	assert.True(t, errors.Is(err, disasm.ErrArch))

	_, err = Open(disasm.ArchX86, disasm.ModeLittleEndian)
	assert.True(t, errors.Is(err, disasm.ErrMode))

	_, err = Open(disasm.ArchARM, disasm.Mode64)
	assert.True(t, errors.Is(err, disasm.ErrMode))

	_, err = Open(disasm.ArchMIPS, disasm.ModeMicro)
	assert.True(t, errors.Is(err, disasm.ErrMode))

	_, err = Open(disasm.ArchPPC, disasm.Mode32|disasm.Mode64)
	assert.True(t, errors.Is(err, disasm.ErrMode))
}

func TestNilHandle(t *testing.T) {
	var h *Handle
	assert.True(t, errors.Is(h.Close(), disasm.ErrCsh))
	_, err := h.Decode(nil, 0, 0)
	assert.True(t, errors.Is(err, disasm.ErrCsh))
	assert.True(t, errors.Is(h.SetDetail(true), disasm.ErrCsh))
	n, err := h.MaxInsnSize()
	assert.Zero(t, n)
	assert.True(t, errors.Is(err, disasm.ErrCsh))
}

func TestDecodeScenarios(t *testing.T) {
	h := mustOpen(t, disasm.ArchARM, disasm.ModeARM)

	t.Run("single", func(t *testing.T) {
		s, err := h.Decode(hexBytes(t, "0000a0e1"), 0x1000, 0)
		require.NoError(t, err)
		require.Len(t, s, 1)
		assert.Equal(t, uint64(0x1000), s[0].Address)
		assert.Equal(t, 4, s[0].Size)
		assert.Equal(t, []byte{0x00, 0x00, 0xa0, 0xe1}, s[0].Bytes)
		assert.Equal(t, "mov r0, r0", s[0].Text())
		assert.False(t, s[0].HasDetail())
	})

	t.Run("trailing bytes", func(t *testing.T) {
		s, err := h.Decode(hexBytes(t, "0000a0e10000"), 0x1000, 0)
		require.NoError(t, err)
		assert.Len(t, s, 1)
		assert.Equal(t, 4, s.Consumed())
	})

	t.Run("empty", func(t *testing.T) {
		s, err := h.Decode(nil, 0x1000, 0)
		require.NoError(t, err)
		assert.Empty(t, s)
		assert.Equal(t, 0, s.Consumed())
	})

	t.Run("count", func(t *testing.T) {
		s, err := h.Decode(hexBytes(t, "0000a0e10000a0e11eff2fe1"), 0x1000, 1)
		require.NoError(t, err)
		require.Len(t, s, 1)
		assert.Equal(t, uint64(0x1004), s[0].End())
	})
}

func TestDecodeStopsOnMalformed(t *testing.T) {
	tests := []struct {
		name     string
		arch     disasm.Arch
		mode     disasm.Mode
		code     string
		records  int
		consumed int
	}{
		{"arm64 zero word", disasm.ArchARM64, 0, "1f2003d500000000", 1, 4},
		{"x86 syscall in 32-bit", disasm.ArchX86, disasm.Mode32, "900f05", 1, 1},
		{"x86 truncated mov", disasm.ArchX86, disasm.Mode64, "c3b81122", 1, 1},
		{"ppc short tail", disasm.ArchPPC, disasm.ModeBigEndian, "6000000060", 1, 4},
		{"x86 complete", disasm.ArchX86, disasm.Mode64, "4850c3", 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustOpen(t, tt.arch, tt.mode)
			code := hexBytes(t, tt.code)
			s, err := h.Decode(code, 0, 0)
			require.NoError(t, err)
			assert.Len(t, s, tt.records)
			assert.Equal(t, tt.consumed, s.Consumed())
			assert.LessOrEqual(t, s.Consumed(), len(code))
		})
	}
}

func TestDecodeDeterministic(t *testing.T) {
	code := hexBytes(t, "4883ec08482b1148890424e8000000004883c408c3")
	decode := func() disasm.Stream {
		h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
		require.NoError(t, h.SetDetail(true))
		s, err := h.Decode(code, 0x400000, 0)
		require.NoError(t, err)
		return s
	}
	first, second := decode(), decode()
	assert.Equal(t, len(code), first.Consumed())
	if diff := cmp.Diff(first, second, cmpInst); diff != "" {
		t.Errorf("streams differ (-first +second):\n%s", diff)
	}

	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	require.NoError(t, h.SetDetail(true))
	for k := 1; k <= len(first)+1; k++ {
		part, err := h.Decode(code, 0x400000, k)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(part), k)
		if diff := cmp.Diff(first[:len(part)], part, cmpInst); diff != "" {
			t.Errorf("count %d is not a prefix (-full +part):\n%s", k, diff)
		}
	}
}

func TestDetailSnapshot(t *testing.T) {
	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	code := hexBytes(t, "c3")

	before, err := h.Decode(code, 0, 0)
	require.NoError(t, err)
	require.NoError(t, h.SetDetail(true))
	after, err := h.Decode(code, 0, 0)
	require.NoError(t, err)
	require.NoError(t, h.SetDetail(false))

	require.Len(t, before, 1)
	require.Len(t, after, 1)
	assert.False(t, before[0].HasDetail())
	assert.True(t, after[0].HasDetail())

	_, err = before[0].Detail()
	assert.True(t, errors.Is(err, disasm.ErrDetail))
	d, err := after[0].Detail()
	require.NoError(t, err)
	assert.Equal(t, disasm.ArchX86, d.Operands().Arch())
}

func TestOperandsAreCopies(t *testing.T) {
	h := mustOpen(t, disasm.ArchARM, disasm.ModeARM)
	require.NoError(t, h.SetDetail(true))
	s, err := h.Decode(hexBytes(t, "0000a0e1"), 0x1000, 0)
	require.NoError(t, err)
	require.Len(t, s, 1)
	d, err := s[0].Detail()
	require.NoError(t, err)

	ops, ok := d.Operands().(*disasm.ARMOperands)
	require.True(t, ok)
	require.NotEmpty(t, ops.Operands)
	want := ops.Operands[0].Reg
	ops.Operands[0].Reg = 99
	ops.Operands = append(ops.Operands, disasm.ARMOperand{Type: disasm.OpImm})
	ops.CC = disasm.ARMCondEQ

	again, ok := d.Operands().(*disasm.ARMOperands)
	require.True(t, ok)
	assert.Equal(t, want, again.Operands[0].Reg)
	assert.Len(t, again.Operands, len(ops.Operands)-1)
	assert.Equal(t, disasm.ARMCondAL, again.CC)

	read, write, err := h.RegsAccess(&s[0])
	require.NoError(t, err)
	assert.Contains(t, append(read, write...), want)
}

func TestOptions(t *testing.T) {
	h := mustOpen(t, disasm.ArchX86, disasm.Mode64)
	assert.Equal(t, disasm.SyntaxIntel, h.Syntax())

	code := hexBytes(t, "482b11")
	s, err := h.Decode(code, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "sub rdx, qword ptr [rcx]", s[0].Text())

	require.NoError(t, h.SetSyntax(disasm.SyntaxATT))
	s, err = h.Decode(code, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "sub (%rcx), %rdx", s[0].Text())

	require.NoError(t, h.SetSyntax(disasm.SyntaxDefault))
	assert.Equal(t, disasm.SyntaxIntel, h.Syntax())

	require.NoError(t, h.SetMode(disasm.Mode32))
	s, err = h.Decode(hexBytes(t, "b811223344"), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "mov eax, 0x44332211", s[0].Text())

	err = h.SetMode(disasm.ModeBigEndian | disasm.Mode32)
	assert.True(t, errors.Is(err, disasm.ErrOption))
	assert.True(t, errors.Is(err, disasm.ErrMode))
	assert.Equal(t, disasm.Mode32, h.Mode())

	assert.True(t, errors.Is(h.SetSyntax(disasm.SyntaxNoRegName), disasm.ErrOption))
	assert.True(t, errors.Is(h.Option(OptDetail, 1), disasm.ErrOption))
	assert.True(t, errors.Is(h.Option(OptionType(42), 0), disasm.ErrOption))

	require.NoError(t, h.Option(OptDetail, OptOn))
	assert.True(t, h.Detail())

	arm := mustOpen(t, disasm.ArchARM, disasm.ModeARM)
	assert.True(t, errors.Is(arm.SetSyntax(disasm.SyntaxATT), disasm.ErrOption))
	require.NoError(t, arm.SetMode(disasm.ModeThumb))
	s, err = arm.Decode([]byte{0x70, 0x47}, 0, 0)
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, "bx lr", s[0].Text())
}

func TestDecodeIter(t *testing.T) {
	h := mustOpen(t, disasm.ArchARM, disasm.ModeARM)
	code := hexBytes(t, "0000a0e10000a0e11eff2fe1ffff")

	var got disasm.Stream
	for inst, err := range h.DecodeIter(code, 0x1000) {
		require.NoError(t, err)
		got = append(got, inst)
	}
	want, err := h.Decode(code, 0x1000, 0)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, cmpInst); diff != "" {
		t.Errorf("iterator differs from Decode (-want +got):\n%s", diff)
	}

	n := 0
	for range h.DecodeIter(code, 0x1000) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)

	require.NoError(t, h.Close())
	for _, err := range h.DecodeIter(code, 0) {
		assert.True(t, errors.Is(err, disasm.ErrHandle))
	}
}

func TestConcurrentHandles(t *testing.T) {
	inputs := []struct {
		arch disasm.Arch
		mode disasm.Mode
		code string
	}{
		{disasm.ArchX86, disasm.Mode64, "4883ec08482b1148890424c3"},
		{disasm.ArchARM64, disasm.ModeLittleEndian, "e7031eaa1f2003d5c0035fd6"},
		{disasm.ArchPPC, disasm.ModeBigEndian, "7c632214806300044e800020"},
		{disasm.ArchARM, disasm.ModeARM, "0000a0e104402de51eff2fe1"},
	}
	want := make([]disasm.Stream, len(inputs))
	for i, in := range inputs {
		h := mustOpen(t, in.arch, in.mode)
		require.NoError(t, h.SetDetail(true))
		s, err := h.Decode(hexBytes(t, in.code), 0, 0)
		require.NoError(t, err)
		want[i] = s
	}

	var g errgroup.Group
	for round := 0; round < 8; round++ {
		for i, in := range inputs {
			code := hexBytes(t, in.code)
			g.Go(func() error {
				h, err := Open(in.arch, in.mode)
				if err != nil {
					return err
				}
				defer h.Close()
				if err := h.SetDetail(true); err != nil {
					return err
				}
				s, err := h.Decode(code, 0, 0)
				if err != nil {
					return err
				}
				if diff := cmp.Diff(want[i], s, cmpInst); diff != "" {
					return errors.New(diff)
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}

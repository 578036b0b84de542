package elfx

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dissect/internal/disasm"
	"dissect/internal/elfx/elftest"
)

func TestMachine(t *testing.T) {
	tests := []struct {
		machine elf.Machine
		class   elf.Class
		data    elf.Data
		arch    disasm.Arch
		mode    disasm.Mode
	}{
		{elf.EM_ARM, elf.ELFCLASS32, elf.ELFDATA2LSB, disasm.ArchARM, disasm.ModeARM},
		{elf.EM_ARM, elf.ELFCLASS32, elf.ELFDATA2MSB, disasm.ArchARM, disasm.ModeBigEndian},
		{elf.EM_AARCH64, elf.ELFCLASS64, elf.ELFDATA2LSB, disasm.ArchARM64, disasm.ModeARM},
		{elf.EM_MIPS, elf.ELFCLASS32, elf.ELFDATA2MSB, disasm.ArchMIPS, disasm.Mode32 | disasm.ModeBigEndian},
		{elf.EM_MIPS, elf.ELFCLASS64, elf.ELFDATA2LSB, disasm.ArchMIPS, disasm.Mode64},
		{elf.EM_386, elf.ELFCLASS32, elf.ELFDATA2LSB, disasm.ArchX86, disasm.Mode32},
		{elf.EM_X86_64, elf.ELFCLASS64, elf.ELFDATA2LSB, disasm.ArchX86, disasm.Mode64},
		{elf.EM_PPC, elf.ELFCLASS32, elf.ELFDATA2MSB, disasm.ArchPPC, disasm.Mode32 | disasm.ModeBigEndian},
		{elf.EM_PPC64, elf.ELFCLASS64, elf.ELFDATA2LSB, disasm.ArchPPC, disasm.Mode64},
	}
	for _, tt := range tests {
		t.Run(tt.machine.String(), func(t *testing.T) {
			a, m, err := Machine(elf.FileHeader{Machine: tt.machine, Class: tt.class, Data: tt.data})
			require.NoError(t, err)
			assert.Equal(t, tt.arch, a)
			assert.Equal(t, tt.mode, m)
		})
	}

	_, _, err := Machine(elf.FileHeader{Machine: elf.EM_RISCV, Class: elf.ELFCLASS64})
	assert.True(t, errors.Is(err, disasm.ErrArch))
	_, _, err = Machine(elf.FileHeader{Machine: elf.EM_X86_64, Data: elf.ELFDATA2MSB})
	assert.True(t, errors.Is(err, disasm.ErrMode))
}

func x86Image() []byte {
	// main: push rbp; ret   helper: nop; ret
	return elftest.Build(elftest.Image{
		Machine: elf.EM_X86_64,
		Class:   elf.ELFCLASS64,
		Text:    []byte{0x55, 0xc3, 0x90, 0xc3},
		Funcs: []elftest.Func{
			{Name: "helper", Off: 2, Size: 2},
			{Name: "main", Off: 0, Size: 2},
		},
	})
}

func TestLoad(t *testing.T) {
	im, err := Load("x86", x86Image())
	require.NoError(t, err)
	defer im.Close()

	assert.Equal(t, disasm.ArchX86, im.Arch)
	assert.Equal(t, disasm.Mode64, im.Mode)
	assert.Equal(t, ".text", im.Text.Name)
	assert.Equal(t, elftest.TextVA(), im.Text.VA)
	assert.Equal(t, uint64(4), im.Text.Size)
	assert.True(t, im.Text.Contains(elftest.TextVA()+3))
	assert.False(t, im.Text.Contains(elftest.TextVA()+4))
	assert.Equal(t, []string{".text"}, im.Sections())

	text, ok := im.Bytes(im.Text)
	require.True(t, ok)
	assert.Equal(t, []byte{0x55, 0xc3, 0x90, 0xc3}, text)

	syms := im.Symbols()
	require.Len(t, syms, 2)
	assert.Equal(t, "main", syms[0].Name)
	assert.Equal(t, "helper", syms[1].Name)
	assert.Equal(t, elftest.TextVA()+2, syms[1].Addr)

	sym, ok := im.FindFunctionByName("helper")
	require.True(t, ok)
	code, ok := im.SliceVA(sym.Addr, sym.Size)
	require.True(t, ok)
	assert.Equal(t, []byte{0x90, 0xc3}, code)

	off, ok := im.VA2Off(elftest.TextVA())
	require.True(t, ok)
	assert.Equal(t, uint64(elftest.TextOff), off)

	_, ok = im.VA2Off(0x10)
	assert.False(t, ok)
	_, ok = im.Section(".data")
	assert.False(t, ok)
	_, ok = im.FindFunctionByName("missing")
	assert.False(t, ok)
}

func TestLoadThumbSymbol(t *testing.T) {
	data := elftest.Build(elftest.Image{
		Machine: elf.EM_ARM,
		Class:   elf.ELFCLASS32,
		Order:   binary.BigEndian,
		Text:    []byte{0x46, 0xc0, 0x47, 0x70},
		Funcs:   []elftest.Func{{Name: "thumb_fn", Off: 0, Size: 4, Thumb: true}},
	})
	im, err := Load("arm", data)
	require.NoError(t, err)
	defer im.Close()

	assert.Equal(t, disasm.ArchARM, im.Arch)
	assert.Equal(t, disasm.ModeBigEndian, im.Mode)
	sym, ok := im.FindFunctionByName("thumb_fn")
	require.True(t, ok)
	assert.True(t, sym.Thumb)
	assert.Equal(t, elftest.TextVA(), sym.Addr)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.out")
	require.NoError(t, os.WriteFile(path, x86Image(), 0o644))

	im, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, im.Path)
	require.NoError(t, im.Close())
	assert.Nil(t, im.All)

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Open(empty)
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "junk")
	require.NoError(t, os.WriteFile(junk, []byte("not an elf file"), 0o644))
	_, err = Open(junk)
	assert.Error(t, err)
}

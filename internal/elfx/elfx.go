// Package elfx opens ELF binaries for decoding: it picks the decoder
// architecture and mode from the header, locates sections and maps virtual
// addresses to file bytes.
package elfx

import (
	"bytes"
	"cmp"
	"debug/elf"
	"fmt"
	"os"
	"slices"
	"strings"
	"syscall"

	"dissect/internal/disasm"
)

type Image struct {
	Path    string
	File    *elf.File
	All     []byte
	Loads   []Seg
	Text    Section
	Arch    disasm.Arch
	Mode    disasm.Mode
	Dynsyms []Symbol
	Syms    []Symbol
	f       *os.File
	mapped  bool
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Contains reports whether va lies inside the section.
func (s Section) Contains(va uint64) bool {
	return s.Size != 0 && va >= s.VA && va < s.VA+s.Size
}

// Symbol is a defined function symbol. For ARM the Thumb bit is stripped
// from Addr and reported in Thumb.
type Symbol struct {
	Name  string
	Addr  uint64
	Size  uint64
	Thumb bool
}

// Machine maps an ELF header to the decoder architecture and mode. It
// fails with disasm.ErrArch for machines no decoder covers.
func Machine(h elf.FileHeader) (disasm.Arch, disasm.Mode, error) {
	var (
		a disasm.Arch
		m disasm.Mode
	)
	wide := h.Class == elf.ELFCLASS64
	switch h.Machine {
	case elf.EM_ARM:
		a = disasm.ArchARM
	case elf.EM_AARCH64:
		a = disasm.ArchARM64
	case elf.EM_MIPS:
		a, m = disasm.ArchMIPS, disasm.Mode32
		if wide {
			m = disasm.Mode64
		}
	case elf.EM_386:
		a, m = disasm.ArchX86, disasm.Mode32
	case elf.EM_X86_64:
		a, m = disasm.ArchX86, disasm.Mode64
	case elf.EM_PPC:
		a, m = disasm.ArchPPC, disasm.Mode32
	case elf.EM_PPC64:
		a, m = disasm.ArchPPC, disasm.Mode64
	default:
		return 0, 0, fmt.Errorf("elf machine %s: %w", h.Machine, disasm.ErrArch)
	}
	if h.Data == elf.ELFDATA2MSB {
		if a == disasm.ArchX86 {
			return 0, 0, fmt.Errorf("elf machine %s big-endian: %w", h.Machine, disasm.ErrMode)
		}
		m |= disasm.ModeBigEndian
	}
	return a, m, nil
}

// Open maps the file read-only and loads its header, sections and symbols.
func Open(path string) (*Image, error) {
	of, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	fi, err := of.Stat()
	if err != nil {
		of.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if fi.Size() == 0 {
		of.Close()
		return nil, fmt.Errorf("open elf %s: empty file", path)
	}

	all, err := syscall.Mmap(int(of.Fd()), 0, int(fi.Size()), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		of.Close()
		return nil, fmt.Errorf("mmap file: %w", err)
	}

	im, err := load(path, all)
	if err != nil {
		syscall.Munmap(all)
		of.Close()
		return nil, err
	}
	im.f = of
	im.mapped = true
	return im, nil
}

// Load parses an ELF image held in memory.
func Load(name string, data []byte) (*Image, error) {
	return load(name, data)
}

func load(path string, all []byte) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(all))
	if err != nil {
		return nil, fmt.Errorf("open elf: %w", err)
	}
	a, m, err := Machine(f.FileHeader)
	if err != nil {
		f.Close()
		return nil, err
	}

	im := &Image{Path: path, File: f, All: all, Arch: a, Mode: m}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	if s, ok := im.Section(".text"); ok {
		im.Text = s
	} else {
		// Stripped of section headers: fall back to the first executable segment.
		for _, l := range im.Loads {
			if l.Flags&elf.PF_X != 0 && l.Filesz > 0 {
				im.Text = Section{"LOAD(exec)", l.Vaddr, l.Off, l.Filesz}
				break
			}
		}
	}

	im.Dynsyms = im.functions(f.DynamicSymbols)
	im.Syms = im.functions(f.Symbols)
	return im, nil
}

// Close unmaps the memory and closes the underlying files.
func (im *Image) Close() error {
	var err1, err2 error
	if im.mapped && im.All != nil {
		err1 = syscall.Munmap(im.All)
	}
	im.All = nil
	if im.f != nil {
		err2 = im.f.Close()
		im.f = nil
	}
	if im.File != nil {
		err3 := im.File.Close()
		if err3 != nil && err2 == nil {
			err2 = err3
		}
		im.File = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// Section finds a section with file contents by name.
func (im *Image) Section(name string) (Section, bool) {
	s := im.File.Section(name)
	if s == nil || s.Type == elf.SHT_NOBITS || s.Size == 0 {
		return Section{}, false
	}
	return Section{s.Name, s.Addr, s.Offset, s.Size}, true
}

// Sections lists the names of sections holding executable code.
func (im *Image) Sections() []string {
	var out []string
	for _, s := range im.File.Sections {
		if s.Flags&elf.SHF_EXECINSTR != 0 && s.Type != elf.SHT_NOBITS && s.Size > 0 {
			out = append(out, s.Name)
		}
	}
	return out
}

// Bytes returns the file bytes of a section.
func (im *Image) Bytes(s Section) ([]byte, bool) {
	end := s.Off + s.Size
	if s.Size == 0 || end < s.Off || end > uint64(len(im.All)) {
		return nil, false
	}
	return im.All[s.Off:end], true
}

// VA2Off translates a virtual address into a file offset
// using PT_LOAD segments. It returns false if VA is unmapped.
func (im *Image) VA2Off(va uint64) (uint64, bool) {
	for _, l := range im.Loads {
		if va >= l.Vaddr && va < l.Vaddr+l.Filesz {
			return l.Off + (va - l.Vaddr), true
		}
	}
	return 0, false
}

// SliceVA returns the mapped bytes for [va, va+size), clipped to the end
// of the containing segment. A size of zero means up to the segment end.
func (im *Image) SliceVA(va uint64, size uint64) ([]byte, bool) {
	for _, l := range im.Loads {
		if va < l.Vaddr || va >= l.Vaddr+l.Filesz {
			continue
		}
		off := l.Off + (va - l.Vaddr)
		limit := l.Off + l.Filesz
		if size != 0 && off+size < limit {
			limit = off + size
		}
		if limit > uint64(len(im.All)) {
			return nil, false
		}
		return im.All[off:limit], true
	}
	return nil, false
}

// Symbols merges the dynamic and static function symbols, keeping one
// entry per name, sorted by address.
func (im *Image) Symbols() []Symbol {
	byName := make(map[string]Symbol)
	for _, set := range [][]Symbol{im.Dynsyms, im.Syms} {
		for _, s := range set {
			if old, ok := byName[s.Name]; !ok || s.Addr < old.Addr {
				byName[s.Name] = s
			}
		}
	}
	out := make([]Symbol, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b Symbol) int {
		return cmp.Or(cmp.Compare(a.Addr, b.Addr), strings.Compare(a.Name, b.Name))
	})
	return out
}

// FindFunctionByName searches the symbol tables for a function by name.
func (im *Image) FindFunctionByName(name string) (Symbol, bool) {
	for _, set := range [][]Symbol{im.Dynsyms, im.Syms} {
		for _, s := range set {
			if s.Name == name {
				return s, true
			}
		}
	}
	return Symbol{}, false
}

func (im *Image) functions(read func() ([]elf.Symbol, error)) []Symbol {
	syms, err := read()
	if err != nil {
		return nil
	}
	var out []Symbol
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Section == elf.SHN_UNDEF || s.Value == 0 || s.Name == "" {
			continue
		}
		sym := Symbol{Name: s.Name, Addr: s.Value, Size: s.Size}
		if im.Arch == disasm.ArchARM && sym.Addr&1 != 0 {
			sym.Addr &^= 1
			sym.Thumb = true
		}
		out = append(out, sym)
	}
	return out
}


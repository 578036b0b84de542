// Package elftest builds small ELF images for tests: one PT_LOAD segment,
// a .text section and a symbol table of functions.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Base is the virtual address of the first file byte.
const Base = 0x10000

// TextOff is the file offset of .text.
const TextOff = 0x80

// Func is a function symbol at Off bytes into .text.
type Func struct {
	Name  string
	Off   uint64
	Size  uint64
	Thumb bool
}

// Image describes the ELF to build.
type Image struct {
	Machine elf.Machine
	Class   elf.Class
	Order   binary.AppendByteOrder
	Text    []byte
	Funcs   []Func
}

// TextVA is the virtual address of .text.
func TextVA() uint64 { return Base + TextOff }

type writer struct {
	bytes.Buffer
	order binary.AppendByteOrder
	wide  bool
}

func (w *writer) u8(v uint8)   { w.WriteByte(v) }
func (w *writer) u16(v uint16) { w.Write(w.order.AppendUint16(nil, v)) }
func (w *writer) u32(v uint32) { w.Write(w.order.AppendUint32(nil, v)) }
func (w *writer) u64(v uint64) { w.Write(w.order.AppendUint64(nil, v)) }

// word writes a class-sized field.
func (w *writer) word(v uint64) {
	if w.wide {
		w.u64(v)
	} else {
		w.u32(uint32(v))
	}
}

func (w *writer) pad(n int) {
	for w.Len()%n != 0 {
		w.WriteByte(0)
	}
}

// Build returns the encoded image.
func Build(img Image) []byte {
	wide := img.Class == elf.ELFCLASS64
	order := img.Order
	if order == nil {
		order = binary.LittleEndian
	}

	strtab := []byte{0}
	names := make([]uint32, len(img.Funcs))
	for i, f := range img.Funcs {
		names[i] = uint32(len(strtab))
		strtab = append(append(strtab, f.Name...), 0)
	}
	shstrtab := []byte("\x00.text\x00.symtab\x00.strtab\x00.shstrtab\x00")
	const (
		nameText     = 1
		nameSymtab   = 7
		nameStrtab   = 15
		nameShstrtab = 23
	)

	// Symbol table, null entry first.
	sw := &writer{order: order, wide: wide}
	symSize := 16
	if wide {
		symSize = 24
	}
	sw.Write(make([]byte, symSize))
	for i, f := range img.Funcs {
		value := TextVA() + f.Off
		if f.Thumb {
			value |= 1
		}
		info := elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC)
		if wide {
			sw.u32(names[i])
			sw.u8(info)
			sw.u8(0)
			sw.u16(1)
			sw.u64(value)
			sw.u64(f.Size)
		} else {
			sw.u32(names[i])
			sw.u32(uint32(value))
			sw.u32(uint32(f.Size))
			sw.u8(info)
			sw.u8(0)
			sw.u16(1)
		}
	}
	symtab := sw.Bytes()

	ehSize, phSize, shSize := 52, 32, 40
	if wide {
		ehSize, phSize, shSize = 64, 56, 64
	}

	// Body: text, symtab, strtab, shstrtab, then section headers.
	body := &writer{order: order, wide: wide}
	body.Write(make([]byte, TextOff))
	body.Write(img.Text)
	body.pad(8)
	symOff := body.Len()
	body.Write(symtab)
	strOff := body.Len()
	body.Write(strtab)
	shstrOff := body.Len()
	body.Write(shstrtab)
	body.pad(8)
	shOff := body.Len()
	total := shOff + 5*shSize

	w := &writer{order: order, wide: wide}
	data := elf.ELFDATA2LSB
	if order == binary.BigEndian {
		data = elf.ELFDATA2MSB
	}
	w.Write([]byte{0x7f, 'E', 'L', 'F', byte(img.Class), byte(data), byte(elf.EV_CURRENT)})
	w.Write(make([]byte, 9))
	w.u16(uint16(elf.ET_EXEC))
	w.u16(uint16(img.Machine))
	w.u32(uint32(elf.EV_CURRENT))
	w.word(TextVA())
	w.word(uint64(ehSize))
	w.word(uint64(shOff))
	w.u32(0)
	w.u16(uint16(ehSize))
	w.u16(uint16(phSize))
	w.u16(1)
	w.u16(uint16(shSize))
	w.u16(5)
	w.u16(4)

	// One PT_LOAD covering the file.
	flags := uint32(elf.PF_R | elf.PF_X)
	w.u32(uint32(elf.PT_LOAD))
	if wide {
		w.u32(flags)
	}
	w.word(0)
	w.word(Base)
	w.word(Base)
	w.word(uint64(total))
	w.word(uint64(total))
	if !wide {
		w.u32(flags)
	}
	w.word(0x1000)

	out := body.Bytes()
	copy(out, w.Bytes())

	sh := &writer{order: order, wide: wide}
	section := func(name uint32, typ elf.SectionType, flags elf.SectionFlag, addr uint64, off, size int, link, info uint32, align, entsize uint64) {
		sh.u32(name)
		sh.u32(uint32(typ))
		sh.word(uint64(flags))
		sh.word(addr)
		sh.word(uint64(off))
		sh.word(uint64(size))
		sh.u32(link)
		sh.u32(info)
		sh.word(align)
		sh.word(entsize)
	}
	sh.Write(make([]byte, shSize))
	section(nameText, elf.SHT_PROGBITS, elf.SHF_ALLOC|elf.SHF_EXECINSTR, TextVA(), TextOff, len(img.Text), 0, 0, 4, 0)
	section(nameSymtab, elf.SHT_SYMTAB, 0, 0, symOff, len(symtab), 3, 1, 8, uint64(symSize))
	section(nameStrtab, elf.SHT_STRTAB, 0, 0, strOff, len(strtab), 0, 0, 1, 0)
	section(nameShstrtab, elf.SHT_STRTAB, 0, 0, shstrOff, len(shstrtab), 0, 0, 1, 0)
	return append(out, sh.Bytes()...)
}

package cmd

import (
	"bytes"
	"debug/elf"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"dissect/internal/disasm"
	"dissect/internal/elfx"
)

// decodeOptions is the resolved decoder setup shared by decode, follow
// and view.
type decodeOptions struct {
	arch     disasm.Arch
	archSet  bool
	mode     disasm.Mode
	modeSet  bool
	syntax   disasm.Syntax
	detail   bool
	skipData bool
	color    bool
	address  uint64
	addrSet  bool
	count    int
	offset   int
	section  string
	symbol   string
}

// defaultMode is the mode used for raw input when --mode is not given.
func defaultMode(a disasm.Arch) disasm.Mode {
	switch a {
	case disasm.ArchMIPS:
		return disasm.Mode32 | disasm.ModeBigEndian
	case disasm.ArchX86:
		return disasm.Mode64
	case disasm.ArchPPC:
		return disasm.Mode64 | disasm.ModeBigEndian
	}
	return disasm.ModeARM
}

func addArchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("arch", "a", "", "Architecture: arm, arm64, mips, x86, ppc")
	cmd.Flags().StringP("mode", "m", "", "Mode flags, comma separated: 16, 32, 64, thumb, micro, n64, be")
	cmd.Flags().StringP("syntax", "s", "", "Syntax: default, intel, att, noregname")
	cmd.Flags().Bool("detail", false, "Print implicit registers, groups and operands")
	cmd.Flags().Bool("no-color", false, "Disable syntax highlighting")
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("address", 0, "Address of the first decoded byte")
	cmd.Flags().IntP("count", "n", 0, "Stop after this many instructions (0 means all)")
	cmd.Flags().Int("offset", 0, "Skip this many bytes of the input")
	cmd.Flags().String("section", ".text", "ELF section to decode")
	cmd.Flags().String("symbol", "", "ELF function symbol to decode")
	cmd.Flags().Bool("skip-data", false, "Emit .byte records for undecodable bytes and keep going")
}

// resolveOptions merges flags over the config file.
func resolveOptions(cmd *cobra.Command, cfg Config) (decodeOptions, error) {
	var o decodeOptions
	if s := stringFlag(cmd, "arch", cfg.Arch); s != "" {
		a, err := disasm.ParseArch(s)
		if err != nil {
			return o, err
		}
		o.arch, o.archSet = a, true
	}
	if s := stringFlag(cmd, "mode", cfg.Mode); s != "" {
		m, err := disasm.ParseMode(s)
		if err != nil {
			return o, err
		}
		o.mode, o.modeSet = m, true
	}
	s, err := disasm.ParseSyntax(stringFlag(cmd, "syntax", cfg.Syntax))
	if err != nil {
		return o, err
	}
	o.syntax = s
	o.detail = boolFlag(cmd, "detail", cfg.Detail)
	o.color = !boolFlag(cmd, "no-color", cfg.NoColor)

	if cmd.Flags().Lookup("address") == nil {
		return o, nil
	}
	o.skipData = boolFlag(cmd, "skip-data", cfg.SkipData)
	o.address, _ = cmd.Flags().GetUint64("address")
	o.addrSet = cmd.Flags().Changed("address")
	o.count, _ = cmd.Flags().GetInt("count")
	o.offset, _ = cmd.Flags().GetInt("offset")
	o.section, _ = cmd.Flags().GetString("section")
	o.symbol, _ = cmd.Flags().GetString("symbol")
	if o.offset < 0 {
		return o, fmt.Errorf("--offset %d: must not be negative", o.offset)
	}
	return o, nil
}

// input is one buffer to decode with the setup that applies to it.
type input struct {
	name    string
	arch    disasm.Arch
	mode    disasm.Mode
	code    []byte
	addr    uint64
	symbols []elfx.Symbol
}

// rawInput binds bytes that carry no header to the flag architecture.
func (o decodeOptions) rawInput(name string, data []byte) (input, error) {
	if !o.archSet {
		return input{}, fmt.Errorf("%s: raw input needs --arch: %w", name, disasm.ErrArch)
	}
	in := input{name: name, arch: o.arch, mode: o.mode, addr: o.address}
	if !o.modeSet {
		in.mode = defaultMode(o.arch)
	}
	if o.offset > len(data) {
		return input{}, fmt.Errorf("%s: --offset %d past end of %d bytes", name, o.offset, len(data))
	}
	in.code = data[o.offset:]
	return in, nil
}

// fileInput loads path as an ELF image when it has the ELF magic and as
// raw bytes otherwise.
func (o decodeOptions) fileInput(path string) (input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return input{}, err
	}
	if !bytes.HasPrefix(data, []byte(elf.ELFMAG)) {
		return o.rawInput(path, data)
	}
	return o.elfInput(path)
}

func (o decodeOptions) elfInput(path string) (input, error) {
	im, err := elfx.Open(path)
	if err != nil {
		return input{}, err
	}
	defer im.Close()

	in := input{name: path, arch: im.Arch, mode: im.Mode, symbols: im.Symbols()}
	if o.archSet {
		in.arch = o.arch
	}
	if o.modeSet {
		in.mode = o.mode
	}

	var code []byte
	switch {
	case o.symbol != "":
		sym, ok := im.FindFunctionByName(o.symbol)
		if !ok {
			return input{}, fmt.Errorf("%s: no function symbol %q", path, o.symbol)
		}
		if code, ok = im.SliceVA(sym.Addr, sym.Size); !ok {
			return input{}, fmt.Errorf("%s: symbol %q at %#x is not mapped", path, o.symbol, sym.Addr)
		}
		if sym.Thumb && in.arch == disasm.ArchARM {
			in.mode |= disasm.ModeThumb
		}
		in.addr = sym.Addr
	default:
		sec := im.Text
		if o.section != "" && o.section != ".text" {
			s, ok := im.Section(o.section)
			if !ok {
				return input{}, fmt.Errorf("%s: no section %q", path, o.section)
			}
			sec = s
		}
		b, ok := im.Bytes(sec)
		if !ok {
			return input{}, fmt.Errorf("%s: section %q has no bytes", path, sec.Name)
		}
		code, in.addr = b, sec.VA
	}

	if o.offset > len(code) {
		return input{}, fmt.Errorf("%s: --offset %d past end of %d bytes", path, o.offset, len(code))
	}
	// The mapping goes away with the image.
	in.code = slices.Clone(code[o.offset:])
	in.addr += uint64(o.offset)
	if o.addrSet {
		in.addr = o.address
	}
	return in, nil
}

// parseHex accepts hex with optional whitespace, commas, 0x and \x
// prefixes: "00 00 a0 e1", "0x00,0x00", "\x00\x00".
func parseHex(s string) ([]byte, error) {
	r := strings.NewReplacer("0x", "", "0X", "", `\x`, "", ",", " ")
	clean := strings.Join(strings.Fields(r.Replace(s)), "")
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}

// readStdinHex reads hex text from r.
func readStdinHex(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseHex(string(data))
}

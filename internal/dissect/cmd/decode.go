package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"dissect/internal/analysis"
	"dissect/internal/disasm"
	"dissect/internal/dissect/log"
	"dissect/internal/engine"
	"dissect/internal/logging"
	"dissect/internal/ui/colorize"
)

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode [file...]",
		Short: "Decode machine code from hex, raw files or ELF binaries",
		Long: `Decode machine code and print one instruction per line.

Input is hex text given with --hex or on stdin, raw binary files, or ELF
binaries. ELF input picks its architecture and mode from the header and
decodes .text unless --section or --symbol says otherwise. Several files
are decoded concurrently, each with its own decoder handle.`,
		Example: `
# Decode ARM bytes given as hex
dissect decode --arch arm --hex "00 00 a0 e1"

# Decode big-endian 64-bit PowerPC with detail
dissect decode -a ppc -m 64,be --detail --hex 4e800020

# Decode a function of an ELF binary as JSON
dissect decode --symbol main --json ./a.out
  `,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg)
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			hexText, _ := cmd.Flags().GetString("hex")

			inputs, err := gatherInputs(cmd, opts, hexText, args)
			if err != nil {
				return err
			}
			lg := logging.NewLogger()
			defer lg.Close()

			results, err := decodeAll(cmd.Context(), inputs, opts, !asJSON, lg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, results)
			}
			color := opts.color && isTerminal(out)
			for i, r := range results {
				if len(results) > 1 {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintf(out, "; %s (%s, %s)\n", r.in.name, r.in.arch, r.mode)
				}
				writeListing(out, r, opts, color)
			}
			return nil
		},
	}
	addArchFlags(cmd)
	addInputFlags(cmd)
	cmd.Flags().String("hex", "", "Decode these hex bytes instead of files")
	cmd.Flags().BoolP("json", "j", false, "Print records as JSON")
	return cmd
}

func gatherInputs(cmd *cobra.Command, opts decodeOptions, hexText string, args []string) ([]input, error) {
	if hexText != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--hex and file arguments are exclusive")
		}
		b, err := parseHex(hexText)
		if err != nil {
			return nil, err
		}
		in, err := opts.rawInput("hex", b)
		if err != nil {
			return nil, err
		}
		return []input{in}, nil
	}
	if len(args) == 0 {
		b, err := readStdinHex(cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		in, err := opts.rawInput("stdin", b)
		if err != nil {
			return nil, err
		}
		return []input{in}, nil
	}
	inputs := make([]input, 0, len(args))
	for _, path := range args {
		in, err := opts.fileInput(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// result is the decode output for one input. The handle is closed by the
// time it is rendered, so the names and register sets the listing needs
// are looked up while decoding.
type result struct {
	in     input
	mode   disasm.Mode
	syntax disasm.Syntax
	stream disasm.Stream
	access []regAccess
	names  nameTable
}

// regAccess holds every register an instruction reads and writes.
type regAccess struct {
	read, write []uint
	groups      []uint
	ok          bool
}

// nameTable snapshots the register and group names a listing refers to.
type nameTable struct {
	regs   map[uint]string
	groups map[uint]string
}

func (n nameTable) reg(id uint) string {
	if s, ok := n.regs[id]; ok {
		return s
	}
	return fmt.Sprintf("reg%d", id)
}

func (n nameTable) group(id uint) string {
	if s, ok := n.groups[id]; ok {
		return s
	}
	return fmt.Sprintf("group%d", id)
}

// decodeAll decodes every input on its own handle, concurrently. Results
// keep input order. Detail is forced on when withTargets is set so that
// branch targets can be labelled.
func decodeAll(ctx context.Context, inputs []input, opts decodeOptions, withTargets bool, lg *logging.LoggerCloser) ([]result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, in := range inputs {
		g.Go(func() (err error) {
			defer log.RecoverPanic("decode "+in.name, func() {
				err = fmt.Errorf("decode %s: internal error", in.name)
			})
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := decodeOne(in, opts, opts.detail || withTargets, lg)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func decodeOne(in input, opts decodeOptions, detail bool, lg *logging.LoggerCloser) (result, error) {
	h, err := engine.Open(in.arch, in.mode)
	if err != nil {
		return result{}, fmt.Errorf("%s: %w", in.name, err)
	}
	defer h.Close()
	if err := h.SetSyntax(opts.syntax); err != nil {
		return result{}, fmt.Errorf("%s: %w", in.name, err)
	}
	if err := h.SetDetail(detail); err != nil {
		return result{}, fmt.Errorf("%s: %w", in.name, err)
	}

	var s disasm.Stream
	if opts.skipData {
		s, err = analysis.Sweep(h, in.code, in.addr, opts.count, lg.Logger)
	} else {
		s, err = h.Decode(in.code, in.addr, opts.count)
	}
	if err != nil {
		return result{}, fmt.Errorf("%s: %w", in.name, err)
	}
	lg.Debug("decoded", "input", in.name, "arch", in.arch, "records", len(s), "consumed", s.Consumed(), "size", len(in.code))

	r := result{
		in:     in,
		mode:   h.Mode(),
		syntax: h.Syntax(),
		stream: s,
	}
	if opts.detail {
		r.access, r.names = collectAccess(h, s)
	}
	return r, nil
}

func collectAccess(h *engine.Handle, s disasm.Stream) ([]regAccess, nameTable) {
	access := make([]regAccess, len(s))
	n := nameTable{regs: make(map[uint]string), groups: make(map[uint]string)}
	for i := range s {
		read, write, err := h.RegsAccess(&s[i])
		if err != nil {
			continue
		}
		d, _ := s[i].Detail()
		groups, err := d.Groups()
		if err != nil {
			continue
		}
		access[i] = regAccess{read: read, write: write, groups: groups, ok: true}
		for _, r := range append(slices.Clone(read), write...) {
			if _, ok := n.regs[r]; ok {
				continue
			}
			if name, err := h.RegName(r); err == nil {
				n.regs[r] = name
			}
		}
		for _, g := range groups {
			if _, ok := n.groups[g]; ok {
				continue
			}
			if name, err := h.GroupName(g); err == nil {
				n.groups[g] = name
			}
		}
	}
	return access, n
}

func writeListing(w io.Writer, r result, opts decodeOptions, color bool) {
	rows := analysis.Annotate(r.stream, analysis.NewLabels(r.in.symbols))
	for i, row := range rows {
		if row.Label != "" {
			if i > 0 {
				emit(w, r, "", color)
			}
			emit(w, r, row.Label+":", color)
		}
		emit(w, r, row.String(), color)
		if opts.detail && i < len(r.access) {
			if line := detailLine(r, r.access[i]); line != "" {
				emit(w, r, line, color)
			}
		}
	}
	if consumed := r.stream.Consumed(); consumed < len(r.in.code) {
		stop := r.in.addr + uint64(consumed)
		emit(w, r, fmt.Sprintf("; stopped at %#x, %d bytes not decoded", stop, len(r.in.code)-consumed), color)
	}
}

func emit(w io.Writer, r result, line string, color bool) {
	if color {
		line = colorize.Line(r.in.arch, r.syntax, line)
	}
	fmt.Fprintln(w, line)
}

// detailLine renders the register and group sets of an instruction as a
// comment line.
func detailLine(r result, a regAccess) string {
	if !a.ok {
		return ""
	}
	var parts []string
	add := func(label string, ids []uint, name func(uint) string) {
		if len(ids) == 0 {
			return
		}
		names := make([]string, len(ids))
		for i, id := range ids {
			names[i] = name(id)
		}
		parts = append(parts, label+" "+strings.Join(names, " "))
	}
	add("reads", a.read, r.names.reg)
	add("writes", a.write, r.names.reg)
	add("groups", a.groups, r.names.group)
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("%12s; %s", "", strings.Join(parts, "; "))
}

type jsonResult struct {
	Input    string        `json:"input"`
	Arch     string        `json:"arch"`
	Mode     string        `json:"mode"`
	Syntax   string        `json:"syntax"`
	Address  uint64        `json:"address"`
	Size     int           `json:"size"`
	Consumed int           `json:"consumed"`
	Records  disasm.Stream `json:"records"`
}

func writeJSON(w io.Writer, results []result) error {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		records := r.stream
		if records == nil {
			records = disasm.Stream{}
		}
		out[i] = jsonResult{
			Input:    r.in.name,
			Arch:     r.in.arch.String(),
			Mode:     r.mode.String(),
			Syntax:   r.syntax.String(),
			Address:  r.in.addr,
			Size:     len(r.in.code),
			Consumed: r.stream.Consumed(),
			Records:  records,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

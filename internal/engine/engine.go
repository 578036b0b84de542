// Package engine owns decoder handles and drives the per-architecture
// decoders over a byte buffer.
//
// A Handle binds one architecture to its mode, syntax and detail options.
// Handles share no mutable state, so separate handles may decode from
// separate goroutines. A single handle must not be used concurrently.
package engine

import (
	"fmt"
	"iter"

	"dissect/internal/arch"
	"dissect/internal/disasm"
)

// OptionType selects the setting Option changes.
type OptionType int

const (
	OptSyntax OptionType = iota + 1
	OptDetail
	OptMode
)

// Values for OptDetail.
const (
	OptOff uint = 0
	OptOn  uint = 3
)

func (o OptionType) String() string {
	switch o {
	case OptSyntax:
		return "syntax"
	case OptDetail:
		return "detail"
	case OptMode:
		return "mode"
	}
	return fmt.Sprintf("OptionType(%d)", int(o))
}

// Handle is an open decoding session. The zero value is not usable; call
// Open.
type Handle struct {
	arch   disasm.Arch
	dec    arch.Decoder
	mode   disasm.Mode
	syntax disasm.Syntax
	detail bool
	diet   bool
	closed bool
}

// Open validates the architecture and mode and returns a handle with
// detail off and the architecture's default syntax.
func Open(a disasm.Arch, mode disasm.Mode) (*Handle, error) {
	return open(a, mode, reducedBuild)
}

func open(a disasm.Arch, mode disasm.Mode, diet bool) (*Handle, error) {
	dec, ok := decoders[a]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", a, disasm.ErrArch)
	}
	if err := dec.ValidateMode(mode); err != nil {
		return nil, fmt.Errorf("open %s: %w", a, err)
	}
	return &Handle{
		arch:   a,
		dec:    dec,
		mode:   mode,
		syntax: dec.DefaultSyntax(),
		diet:   diet,
	}, nil
}

func (h *Handle) check(op string) error {
	switch {
	case h == nil:
		return fmt.Errorf("%s: %w", op, disasm.ErrCsh)
	case h.closed:
		return fmt.Errorf("%s: %w", op, disasm.ErrHandle)
	}
	return nil
}

// Close releases the handle. Every later call, including a second Close,
// fails with disasm.ErrHandle.
func (h *Handle) Close() error {
	if err := h.check("close"); err != nil {
		return err
	}
	h.closed = true
	h.dec = nil
	return nil
}

// Arch returns the architecture the handle was opened for.
func (h *Handle) Arch() disasm.Arch { return h.arch }

// Mode returns the mode the next Decode uses.
func (h *Handle) Mode() disasm.Mode { return h.mode }

// Syntax returns the syntax the next Decode uses, with the default
// resolved to the architecture's own.
func (h *Handle) Syntax() disasm.Syntax { return h.syntax }

// Detail reports whether the next Decode records detail.
func (h *Handle) Detail() bool { return h.detail }

// Reduced reports whether the handle belongs to a diet engine.
func (h *Handle) Reduced() bool { return h.diet }

// MaxInsnSize is the longest encoding the architecture can produce.
func (h *Handle) MaxInsnSize() (int, error) {
	if err := h.check("max insn size"); err != nil {
		return 0, err
	}
	return h.dec.MaxInsnSize(), nil
}

// Option changes one setting. The change applies from the next Decode
// call onwards.
func (h *Handle) Option(opt OptionType, value uint) error {
	if err := h.check("option " + opt.String()); err != nil {
		return err
	}
	switch opt {
	case OptMode:
		m := disasm.Mode(value)
		if err := h.dec.ValidateMode(m); err != nil {
			return fmt.Errorf("option mode: %w: %w", disasm.ErrOption, err)
		}
		h.mode = m
	case OptSyntax:
		s := disasm.Syntax(value)
		if err := h.dec.ValidateSyntax(s); err != nil {
			return fmt.Errorf("option syntax: %w", err)
		}
		if s == disasm.SyntaxDefault {
			s = h.dec.DefaultSyntax()
		}
		h.syntax = s
	case OptDetail:
		switch value {
		case OptOn:
			h.detail = true
		case OptOff:
			h.detail = false
		default:
			return fmt.Errorf("option detail %d: %w", value, disasm.ErrOption)
		}
	default:
		return fmt.Errorf("option %s: %w", opt, disasm.ErrOption)
	}
	return nil
}

func (h *Handle) SetMode(m disasm.Mode) error { return h.Option(OptMode, uint(m)) }

func (h *Handle) SetSyntax(s disasm.Syntax) error { return h.Option(OptSyntax, uint(s)) }

func (h *Handle) SetDetail(on bool) error {
	if on {
		return h.Option(OptDetail, OptOn)
	}
	return h.Option(OptDetail, OptOff)
}

// Decode decodes code, placed at addr, until the bytes run out, an
// instruction does not decode, or count records were produced. A count of
// zero or less means no limit. Stopping early is not an error; compare
// Consumed with len(code) to find out why decoding stopped.
func (h *Handle) Decode(code []byte, addr uint64, count int) (disasm.Stream, error) {
	if err := h.check("decode"); err != nil {
		return nil, err
	}
	var out disasm.Stream
	c := newCursor(code, addr)
	for count <= 0 || len(out) < count {
		inst, ok := h.step(c)
		if !ok {
			break
		}
		out = append(out, inst)
	}
	return out, nil
}

// DecodeIter yields one record per step, reading the handle's options
// before each one. A handle error is yielded once and ends the sequence.
func (h *Handle) DecodeIter(code []byte, addr uint64) iter.Seq2[disasm.Inst, error] {
	return func(yield func(disasm.Inst, error) bool) {
		c := newCursor(code, addr)
		for {
			if err := h.check("decode"); err != nil {
				yield(disasm.Inst{}, err)
				return
			}
			inst, ok := h.step(c)
			if !ok || !yield(inst, nil) {
				return
			}
		}
	}
}

// step decodes the instruction at the cursor and advances past it.
func (h *Handle) step(c *cursor) (disasm.Inst, bool) {
	if c.remaining() == 0 {
		return disasm.Inst{}, false
	}
	addr := c.addr
	d, err := h.dec.Decode(c.rest(), addr, h.mode, h.syntax)
	if err != nil || d.Size < 1 || d.Size > c.remaining() {
		return disasm.Inst{}, false
	}
	var detail *disasm.Detail
	if h.detail {
		detail = disasm.NewDetail(d.Effects.Read, d.Effects.Write, d.Effects.Groups, d.Operands, h.diet)
	}
	return disasm.NewInst(d.ID, addr, c.advance(d.Size), d.Mnemonic, d.OpStr, detail, h.diet), true
}

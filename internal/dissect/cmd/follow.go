package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"dissect/internal/analysis"
	"dissect/internal/disasm"
	"dissect/internal/engine"
	"dissect/internal/logging"
)

func newFollowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "follow <file>",
		Short: "Decode hex lines as they are appended to a file",
		Long: `Follow a text file like tail -F and decode every line as hex machine code.

A line may start with an address and a colon ("0x1000: 90 c3"); lines
without one continue at the address after the previous line. Empty lines
and lines starting with # are ignored.`,
		Example: `
# Decode a trace as a tracer writes it
dissect follow -a arm64 /tmp/trace.hex
  `,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg)
			if err != nil {
				return err
			}
			in, err := opts.rawInput(args[0], nil)
			if err != nil {
				return err
			}
			noFollow, _ := cmd.Flags().GetBool("no-follow")

			h, err := engine.Open(in.arch, in.mode)
			if err != nil {
				return err
			}
			defer h.Close()
			if err := h.SetSyntax(opts.syntax); err != nil {
				return err
			}
			if err := h.SetDetail(true); err != nil {
				return err
			}

			t, err := tail.TailFile(args[0], tail.Config{
				Follow:    !noFollow,
				ReOpen:    !noFollow,
				MustExist: true,
				Logger:    tail.DiscardingLogger,
			})
			if err != nil {
				return err
			}
			if !noFollow {
				defer t.Cleanup()
			}
			defer t.Stop()

			lg := logging.NewLogger()
			defer lg.Close()

			f := &follower{h: h, addr: in.addr, skipData: opts.skipData, out: cmd.OutOrStdout(), lg: lg}
			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-t.Lines:
					if !ok {
						return t.Wait()
					}
					if line.Err != nil {
						return line.Err
					}
					f.line(line.Num, line.Text)
				}
			}
		},
	}
	addArchFlags(cmd)
	cmd.Flags().Uint64("address", 0, "Address of the first decoded byte")
	cmd.Flags().Bool("skip-data", false, "Emit .byte records for undecodable bytes and keep going")
	cmd.Flags().Bool("no-follow", false, "Stop at end of file")
	return cmd
}

// follower decodes one line at a time, carrying the address across lines.
type follower struct {
	h        *engine.Handle
	addr     uint64
	skipData bool
	out      io.Writer
	lg       *logging.LoggerCloser
}

func (f *follower) line(num int, text string) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return
	}
	if head, rest, ok := strings.Cut(text, ":"); ok {
		addr, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(head)), "0x"), 16, 64)
		if err != nil {
			fmt.Fprintf(f.out, "; line %d: bad address %q\n", num, head)
			return
		}
		f.addr, text = addr, rest
	}
	code, err := parseHex(text)
	if err != nil {
		fmt.Fprintf(f.out, "; line %d: %v\n", num, err)
		return
	}

	var s disasm.Stream
	if f.skipData {
		s, err = analysis.Sweep(f.h, code, f.addr, 0, f.lg.Logger)
	} else {
		s, err = f.h.Decode(code, f.addr, 0)
	}
	if err != nil {
		fmt.Fprintf(f.out, "; line %d: %v\n", num, err)
		return
	}
	for _, row := range analysis.Annotate(s, nil) {
		fmt.Fprintln(f.out, row.String())
	}
	if consumed := s.Consumed(); consumed < len(code) {
		fmt.Fprintf(f.out, "; line %d: stopped at %#x, %d bytes not decoded\n", num, f.addr+uint64(consumed), len(code)-consumed)
		f.lg.Debug("follow: partial line", "line", num, "consumed", consumed, "size", len(code))
	}
	f.addr += uint64(len(code))
}

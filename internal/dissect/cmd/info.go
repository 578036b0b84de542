package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"dissect/internal/disasm"
	"dissect/internal/dissect/styles"
	"dissect/internal/engine"
)

// modeCandidates are the mode words info probes against each decoder.
var modeCandidates = []disasm.Mode{
	disasm.ModeARM,
	disasm.ModeThumb,
	disasm.Mode16,
	disasm.Mode32,
	disasm.Mode64,
	disasm.Mode64 | disasm.ModeN64,
}

var allSyntaxes = []disasm.Syntax{
	disasm.SyntaxDefault,
	disasm.SyntaxIntel,
	disasm.SyntaxATT,
	disasm.SyntaxNoRegName,
}

type archInfo struct {
	arch          disasm.Arch
	modes         []string
	syntaxes      []string
	defaultSyntax disasm.Syntax
	maxInsnSize   int
}

func probeArchs() []archInfo {
	var out []archInfo
	for _, a := range disasm.Archs() {
		d, ok := engine.Lookup(a)
		if !ok {
			continue
		}
		info := archInfo{arch: a, defaultSyntax: d.DefaultSyntax(), maxInsnSize: d.MaxInsnSize()}
		for _, m := range modeCandidates {
			for _, order := range []disasm.Mode{disasm.ModeLittleEndian, disasm.ModeBigEndian} {
				if d.ValidateMode(m|order) == nil {
					info.modes = append(info.modes, (m | order).String())
				}
			}
		}
		info.modes = slices.Compact(info.modes)
		for _, s := range allSyntaxes {
			if d.ValidateSyntax(s) == nil {
				info.syntaxes = append(info.syntaxes, s.String())
			}
		}
		out = append(out, info)
	}
	return out
}

func infoMarkdown() string {
	var b strings.Builder
	major, minor := engine.Version()
	b.WriteString("# Dissect\n\n")
	fmt.Fprintf(&b, "Engine API **%d.%d**", major, minor)
	if engine.SupportsReducedBuild() {
		b.WriteString(", reduced build (no detail, no text)")
	}
	b.WriteString(".\n\n## Architectures\n\n")
	b.WriteString("| Arch | Modes | Syntaxes | Max size |\n")
	b.WriteString("|------|-------|----------|----------|\n")
	for _, a := range probeArchs() {
		syntaxes := make([]string, len(a.syntaxes))
		for i, s := range a.syntaxes {
			if s == a.defaultSyntax.String() {
				s = "*" + s + "*"
			}
			syntaxes[i] = s
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
			a.arch,
			"`"+strings.Join(a.modes, "` `")+"`",
			strings.Join(syntaxes, ", "),
			a.maxInsnSize)
	}
	return b.String()
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the engine version and supported architectures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			out := cmd.OutOrStdout()
			md := infoMarkdown()
			if raw || !isTerminal(out) {
				_, err := io.WriteString(out, md)
				return err
			}
			r, err := styles.MarkdownRenderer(100)
			if err != nil {
				return err
			}
			rendered, err := r.Render(md)
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, rendered)
			return err
		},
	}
	cmd.Flags().Bool("raw", false, "Print markdown without rendering it")
	return cmd
}

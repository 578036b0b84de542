package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dissect/internal/engine"
)

// maxNameID bounds the id scan. Every decoder keeps its register,
// instruction and group ids below it.
const maxNameID = 0x10000

func newNamesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List register, instruction or group names of an architecture",
		Example: `
# Every x86 register id and name
dissect names -a x86

# MIPS groups
dissect names -a mips --kind group
  `,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg)
			if err != nil {
				return err
			}
			in, err := opts.rawInput("names", nil)
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")

			h, err := engine.Open(in.arch, in.mode)
			if err != nil {
				return err
			}
			defer h.Close()

			var lookup func(uint) (string, error)
			switch kind {
			case "reg", "regs", "register":
				lookup = h.RegName
			case "insn", "insns", "instruction":
				lookup = h.InsnName
			case "group", "groups":
				lookup = h.GroupName
			default:
				return fmt.Errorf("unknown --kind %q, want reg, insn or group", kind)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for id := uint(1); id < maxNameID; id++ {
				name, err := lookup(id)
				if err != nil {
					continue
				}
				fmt.Fprintf(tw, "%d\t%s\n", id, name)
			}
			return tw.Flush()
		},
	}
	addArchFlags(cmd)
	cmd.Flags().String("kind", "reg", "Name kind: reg, insn or group")
	return cmd
}

// Package cmd is the dissect command line: decode, view, follow, info and
// names, built on cobra and rendered through fang.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"dissect/internal/dissect/log"
	"dissect/internal/engine"
	"dissect/internal/logging"
)

type configKey struct{}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dissect",
		Short: "Multi-architecture instruction decoder",
		Long: `Dissect decodes ARM, ARM64, MIPS, X86 and PowerPC machine code into
instruction records with optional register, group and operand detail.`,
		Example: `
# Decode x86-64 bytes
dissect decode -a x86 --hex "55 48 89 e5 c3"

# Browse the functions of a binary
dissect view ./a.out
  `,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ResolveCwd(cmd); err != nil {
				return err
			}
			path, _ := cmd.Flags().GetString("config")
			cfg, err := LoadConfig(path)
			if err != nil {
				return err
			}
			debug, _ := cmd.Flags().GetBool("debug")
			logFile, _ := cmd.Flags().GetString("log-file")
			if logFile == "" {
				logFile = cfg.LogFile
			}
			log.Setup(logFile, debug || cfg.Debug)
			logging.SetDebug(debug || cfg.Debug)

			if err := engine.CheckVersion(engine.Major, engine.Minor); err != nil {
				slog.Error("Engine version mismatch", "error", err)
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
	}

	root.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	root.PersistentFlags().String("config", "", "JSON config file (default $DISSECT_CONFIG)")
	root.PersistentFlags().BoolP("debug", "d", false, "Debug")
	root.PersistentFlags().String("log-file", "", "Write logs to this file")

	root.AddCommand(
		newDecodeCmd(),
		newViewCmd(),
		newFollowCmd(),
		newInfoCmd(),
		newNamesCmd(),
		newSchemaCmd(),
	)
	return root
}

// configFrom returns the config loaded by the root pre-run.
func configFrom(cmd *cobra.Command) (Config, error) {
	if ctx := cmd.Context(); ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(Config); ok {
			return cfg, nil
		}
	}
	path, _ := cmd.Flags().GetString("config")
	return LoadConfig(path)
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func Execute() {
	root := NewRootCmd()
	major, minor := engine.Version()
	version := fmt.Sprintf("%d.%d", major, minor)

	// Plain output when piped or asked for JSON, so that fang does not
	// restyle it.
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--json" || arg == "-j" || arg == "--no-color" {
			plain = true
			break
		}
	}

	if plain {
		root.Version = version
		if err := root.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}

package cmd

import (
	"bytes"
	"debug/elf"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dissect/internal/elfx/elftest"
)

// run executes the command tree with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DISSECT_CONFIG", "")
	t.Setenv("DISSECT_LOG_LEVEL", "error")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// writeX86ELF writes an x86-64 image with main (push rbp; ret) and
// helper (nop; ret).
func writeX86ELF(t *testing.T) string {
	t.Helper()
	data := elftest.Build(elftest.Image{
		Machine: elf.EM_X86_64,
		Class:   elf.ELFCLASS64,
		Text:    []byte{0x55, 0xc3, 0x90, 0xc3},
		Funcs: []elftest.Func{
			{Name: "main", Off: 0, Size: 2},
			{Name: "helper", Off: 2, Size: 2},
		},
	})
	path := filepath.Join(t.TempDir(), "a.out")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

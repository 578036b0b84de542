package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dissect/internal/disasm"
	"dissect/internal/logging"
)

func loadedModel(t *testing.T, path string, opts decodeOptions) model {
	t.Helper()
	lg := logging.NewLoggerWithWriter(io.Discard)
	m := newModel(path, opts, lg)
	assert.True(t, m.loading)

	next, _ := m.Update(loadCmd(path, opts)())
	m = next.(model)
	require.False(t, m.loading)
	return m
}

func TestViewLoadsELF(t *testing.T) {
	m := loadedModel(t, writeX86ELF(t), decodeOptions{})
	require.NoError(t, m.err)

	assert.Equal(t, viewListing, m.mode)
	assert.Equal(t, "a.out", m.title)
	assert.Contains(t, m.listing, "main:")
	assert.Contains(t, m.listing, "helper:")
	assert.Len(t, m.symbolsList.Items(), 2)
	assert.Contains(t, m.View(), "S: symbols")

	m, _, ok := m.key("s")
	require.True(t, ok)
	assert.Equal(t, viewSymbols, m.mode)

	// The first symbol by address is selected.
	m, _, ok = m.key("enter")
	require.True(t, ok)
	assert.Equal(t, viewListing, m.mode)
	assert.Equal(t, "main", m.title)
	assert.Contains(t, m.listing, "push")
	assert.NotContains(t, m.listing, "nop")
}

func TestViewKeys(t *testing.T) {
	m := loadedModel(t, writeX86ELF(t), decodeOptions{})

	for _, want := range []viewMode{viewSymbols, viewInfo, viewListing} {
		m, _, _ = m.key("tab")
		assert.Equal(t, want, m.mode)
	}
	for _, want := range []viewMode{viewInfo, viewSymbols, viewListing} {
		m, _, _ = m.key("shift+tab")
		assert.Equal(t, want, m.mode)
	}

	m, _, _ = m.key("i")
	assert.Equal(t, viewInfo, m.mode)
	m, _, _ = m.key("l")
	assert.Equal(t, viewListing, m.mode)

	_, cmd, ok := m.key("q")
	assert.True(t, ok)
	assert.NotNil(t, cmd)

	_, _, ok = m.key("j")
	assert.False(t, ok, "scroll keys go to the viewport")
	_, _, ok = m.key("enter")
	assert.False(t, ok, "enter only selects in the symbol list")
}

func TestViewRawFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x90, 0xc3}, 0o644))

	m := loadedModel(t, path, decodeOptions{arch: disasm.ArchX86, archSet: true})
	require.NoError(t, m.err)
	assert.Contains(t, m.listing, "ret")
	assert.Empty(t, m.symbolsList.Items())

	m, _, _ = m.key("tab")
	assert.Equal(t, viewInfo, m.mode, "no symbol list to show")
	m, _, _ = m.key("s")
	assert.Equal(t, viewInfo, m.mode)
	assert.Contains(t, m.infoMarkdown(), "x86, le,64")
}

func TestViewLoadError(t *testing.T) {
	m := loadedModel(t, filepath.Join(t.TempDir(), "missing"), decodeOptions{})
	assert.Error(t, m.err)
	assert.Equal(t, viewInfo, m.mode)
	assert.Contains(t, m.infoMarkdown(), "error:")
}

func TestSymbolInput(t *testing.T) {
	m := loadedModel(t, writeX86ELF(t), decodeOptions{})
	for _, item := range m.symbolsList.Items() {
		sym := item.(symbolItem).sym
		in, ok := m.symbolInput(sym)
		require.True(t, ok, sym.Name)
		assert.Equal(t, sym.Addr, in.addr)
		assert.Len(t, in.code, int(sym.Size))
	}
	sym := m.symbolsList.Items()[0].(symbolItem).sym
	sym.Addr = 0
	_, ok := m.symbolInput(sym)
	assert.False(t, ok)
}

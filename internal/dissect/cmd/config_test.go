package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dissect/internal/logging"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dissect.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("DISSECT_CONFIG", "")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)

	path := writeConfig(t, `{"arch": "ppc", "mode": "64,be", "detail": true, "logFile": "/tmp/x.log"}`)
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	want := Config{Arch: "ppc", Mode: "64,be", Detail: true, LogFile: "/tmp/x.log"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("LoadConfig mismatch (-want +got):\n%s", diff)
	}

	t.Setenv("DISSECT_CONFIG", path)
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ppc", cfg.Arch)

	t.Setenv("DISSECT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	cfg, err = LoadConfig("")
	require.NoError(t, err, "a missing file named by the environment is ignored")
	assert.Equal(t, Config{}, cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err, "a missing file named by --config is an error")

	_, err = LoadConfig(writeConfig(t, `{"arch":`))
	assert.Error(t, err)
}

func TestConfigDefaultsAndFlags(t *testing.T) {
	path := writeConfig(t, `{"arch": "x86", "mode": "32"}`)

	// 0x40 is inc eax in 32-bit mode and a REX prefix in 64-bit mode.
	out, err := run(t, "", "decode", "--config", path, "--hex", "40c3")
	require.NoError(t, err)
	assert.Contains(t, out, "inc")

	out, err = run(t, "", "decode", "--config", path, "-a", "arm", "-m", "arm", "--hex", "0000a0e1")
	require.NoError(t, err)
	assert.Contains(t, out, "mov r0, r0", "flags override the file")

	_, err = run(t, "", "decode", "--config", filepath.Join(t.TempDir(), "nope.json"), "--hex", "c3")
	assert.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := run(t, "", "schema")
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, out, `"Architecture"`)
	assert.Contains(t, out, `"skipData"`)
	assert.Contains(t, out, `"noregname"`)
}

func TestDebugDrivesLogger(t *testing.T) {
	t.Cleanup(func() { logging.SetDebug(false) })

	_, err := run(t, "", "decode", "-a", "x86", "--hex", "c3")
	require.NoError(t, err)
	assert.False(t, logging.IsDebug())

	_, err = run(t, "", "decode", "--debug", "-a", "x86", "--hex", "c3")
	require.NoError(t, err)
	assert.True(t, logging.IsDebug(), "--debug overrides DISSECT_LOG_LEVEL")

	_, err = run(t, "", "decode", "-a", "x86", "--hex", "c3")
	require.NoError(t, err)
	assert.False(t, logging.IsDebug())

	_, err = run(t, "", "decode", "--config", writeConfig(t, `{"debug": true}`), "-a", "x86", "--hex", "c3")
	require.NoError(t, err)
	assert.True(t, logging.IsDebug(), "config debug overrides DISSECT_LOG_LEVEL")
}

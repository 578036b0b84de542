package logging

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"loud", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("DISSECT_LOG_LEVEL", "warn")
	t.Setenv("DISSECT_LOG_PREFIX", "test")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Info("hidden")
	lg.Warn("shown", "arch", "ppc")
	require.NoError(t, lg.Close())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "test")
	assert.Contains(t, out, "arch=ppc")
}

func TestIsDebug(t *testing.T) {
	t.Setenv("DISSECT_LOG_LEVEL", "debug")
	assert.True(t, IsDebug())
	t.Setenv("DISSECT_LOG_LEVEL", "info")
	assert.False(t, IsDebug())
}

func TestSetDebug(t *testing.T) {
	t.Setenv("DISSECT_LOG_LEVEL", "warn")
	SetDebug(true)
	t.Cleanup(func() { SetDebug(false) })
	assert.True(t, IsDebug())

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Debug("decoded", "count", 3)
	assert.Contains(t, buf.String(), "count=3")

	SetDebug(false)
	assert.False(t, IsDebug())
	buf.Reset()
	lg = NewLoggerWithWriter(&buf)
	lg.Debug("decoded", "count", 3)
	assert.Empty(t, buf.String())
}

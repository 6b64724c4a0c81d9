package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":      zapcore.DebugLevel,
		"debug":      zapcore.DebugLevel,
		" warn ":     zapcore.WarnLevel,
		"ERROR":      zapcore.ErrorLevel,
		"INFO":       zapcore.InfoLevel,
		"PRODUCTION": zapcore.InfoLevel,
		"verbose":    zapcore.InfoLevel,
		"":           zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json", FormatConsole))
	assert.Equal(t, FormatConsole, ParseFormat("CONSOLE", FormatJSON))
	assert.Equal(t, FormatJSON, ParseFormat("pretty", FormatJSON))
	assert.Equal(t, FormatConsole, ParseFormat("", FormatConsole))
}

func TestNewWithSinkJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithSink("WARN", FormatJSON, zapcore.AddSync(&buf)).Named(ComponentMachine)

	log.Info("hidden")
	log.Warn("transition failed", zap.String("state", "Red"))
	assert.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"transition failed"`)
	assert.Contains(t, out, `"state":"Red"`)
	assert.Contains(t, out, `"component":"Machine"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestNewWithSinkConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithSink("DEBUG", FormatConsole, zapcore.AddSync(&buf))

	log.Debug("entered", zap.String("state", "Green"))
	assert.Contains(t, buf.String(), " | ")
	assert.Contains(t, buf.String(), "entered")
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLevel, "ERROR")
	t.Setenv(EnvFormat, "JSON")

	log := FromEnv()
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestFor(t *testing.T) {
	assert.NotNil(t, For(ComponentObserver))
	assert.NotNil(t, GetSugaredLogger())
}

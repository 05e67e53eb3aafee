package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSONLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json"}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "forecast").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"component":"forecast"`)
	assert.Contains(t, out, `"time":`)
}

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "not-a-level"}, &buf)

	logger.Debug().Msg("debug")
	logger.Info().Msg("info")

	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}

func TestConsoleFormatIsHumanReadable(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "console"}, &buf)

	logger.Info().Str("store", "4").Msg("forecast ready")

	assert.Contains(t, buf.String(), "forecast ready")
	assert.Contains(t, buf.String(), "store=4")
	assert.NotContains(t, buf.String(), `{"level"`)
}

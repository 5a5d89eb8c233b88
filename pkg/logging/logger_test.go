package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerWritesUTCTimestamps(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	logger.Debug("played", "function", "hi", "events", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "played", record["msg"])
	assert.Equal(t, "hi", record["function"])
	assert.Equal(t, "DEBUG", record["level"])
	ts, ok := record["time"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "Z"), "timestamp %q not UTC", ts)
}

func TestConsoleLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf, Prefix: "robodesk"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("lagging", "function", "hi")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "lagging")
	assert.Contains(t, out, "robodesk")
	assert.Contains(t, out, "hi")
}

func TestNewRejectsUnknownValues(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestDiscardDropsEverything(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

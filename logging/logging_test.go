package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/department_service/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestNewWritesJSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", config.Production)

	logger.Debug("hidden")
	logger.Info("department created", slog.Int64("id", 7))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "department created", record["msg"])
	assert.Equal(t, float64(7), record["id"])
	assert.Equal(t, "department_service", record["service"])
}

func TestNewWritesTextInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", config.Development)

	logger.Debug("reorder finished", slog.Int("changed", 3))

	assert.Contains(t, buf.String(), "msg=\"reorder finished\"")
	assert.Contains(t, buf.String(), "changed=3")
}

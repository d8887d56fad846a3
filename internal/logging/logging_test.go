package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DebugOffIsSilent(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := New(Options{Console: &buf})
	defer func() { _ = closeFn() }()

	logger.Debug("variant downloaded", "variant", "Groot_v1")
	logger.Error("download failed", "variant", "Groot_v2")

	assert.Empty(t, buf.String())
}

func TestNew_DebugOnWritesConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn := New(Options{Debug: true, Console: &buf})
	defer func() { _ = closeFn() }()

	logger.Debug("variant downloaded", "variant", "Groot_v1")

	out := buf.String()
	assert.Contains(t, out, "variant downloaded")
	assert.Contains(t, out, "variant=Groot_v1")
	assert.Contains(t, out, "run_id=")
}

func TestNew_FileReceivesJSON(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "snaplabel.log")

	var console bytes.Buffer
	logger, closeFn := New(Options{File: logPath, Console: &console})

	logger.Info("class index written", "cards", 2)
	require.NoError(t, closeFn())

	// Console stays silent without debug, file still records
	assert.Empty(t, console.String())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "class index written", record["msg"])
	assert.InDelta(t, 2, record["cards"], 0)
	assert.NotEmpty(t, record["run_id"])
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(t.Context(), 8))
}

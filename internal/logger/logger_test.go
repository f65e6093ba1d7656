package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("lang", "es"))
	require.NoError(t, log.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "es", entry["lang"])
}

func TestNew_ConsoleDefault(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{}, &buf)
	require.NoError(t, err)

	log.Debug("hidden at info")
	log.Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "hidden at info")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "lingopad.log")
	log, err := New(Config{Level: "debug", File: path}, &bytes.Buffer{})
	require.NoError(t, err)

	log.Debug("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

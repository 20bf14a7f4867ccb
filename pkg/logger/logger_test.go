package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "server.log")
	log, err := New(Config{Level: "warn", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_ConsoleFileHasNoColor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	log, err := New(Config{Level: "bogus", Format: "console", OutputPath: path})
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "INFO")
	assert.NotContains(t, string(data), "\x1b[")
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/appcatalog/internal/domain"
)

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9100
store:
  database_path: /tmp/catalog.db
stats:
  base_url: file:///srv/stats
  past_ttl: 48h
popular:
  items: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, config.Server.Port)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "/tmp/catalog.db", config.Store.DatabasePath)
	assert.Equal(t, "file:///srv/stats", config.Stats.BaseURL)
	assert.Equal(t, 48*time.Hour, config.Stats.PastTTL)
	assert.Equal(t, time.Hour, config.Stats.TodayTTL)
	assert.Equal(t, 10, config.Popular.Items)
	assert.Equal(t, 7, config.Popular.Days)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0644))

	t.Setenv("APPCATALOG_SERVER_PORT", "9200")
	t.Setenv("APPCATALOG_POPULAR_DAYS", "14")

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9200, config.Server.Port)
	assert.Equal(t, 14, config.Popular.Days)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 0\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.appcatalog/catalog.db", expandPath("$HOME/.appcatalog/catalog.db"))
	assert.Equal(t, "/home/tester/x", expandPath("~/x"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config, err := LoadConfig(writeMinimalConfig(t, dir))
	require.NoError(t, err)
	config.Server.Port = 9300

	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9300, loaded.Server.Port)
	assert.Equal(t, "127.0.0.1", loaded.Server.Host)
	assert.Equal(t, config.Stats.PastTTL, loaded.Stats.PastTTL)
	assert.Equal(t, config.Store.DatabasePath, loaded.Store.DatabasePath)
}

func writeMinimalConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  host: 127.0.0.1\n"), 0644))
	return path
}

func TestConfigValues_CoverBoundEnvKeys(t *testing.T) {
	values := configValues(domain.DefaultConfig())
	for _, key := range envKeys {
		assert.Contains(t, values, key)
	}
	assert.Len(t, values, len(envKeys))
}

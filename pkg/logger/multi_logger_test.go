package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMultiLogger_WritesCategoryFiles(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	ml.LogSyncEvent("Sync completed", zap.Int("added_stable", 3))
	ml.LogStatsEvent("Stats refreshed", zap.String("window", "30d"))
	ml.LogAppError("Update failed", zap.String("run_id", "abc"))
	require.NoError(t, ml.Close())

	today := time.Now()
	reader := NewLogReader(dir)

	entries, err := reader.ReadLogs(CategorySync, today, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Sync completed", entries[0].Message)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, float64(3), entries[0].Fields["added_stable"])

	entries, err = reader.ReadLogs(CategoryError, today, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "error", entries[0].Level)
}

func TestMultiLogger_ErrorCategoryDropsInfo(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "debug", LogsDir: dir})
	require.NoError(t, err)

	ml.Error().Info("not an error")
	require.NoError(t, ml.Close())

	entries, err := NewLogReader(dir).ReadLogs(CategoryError, time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMultiLogger_RotatesDaily(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	tomorrow := time.Now().AddDate(0, 0, 1)
	ml.now = func() time.Time { return tomorrow }
	ml.LogSyncEvent("next day")
	require.NoError(t, ml.Close())

	_, err = os.Stat(filepath.Join(dir, LogFileName(CategorySync, tomorrow.Format("20060102"))))
	assert.NoError(t, err)
}

func TestMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestNopMultiLogger(t *testing.T) {
	ml := NewNopMultiLogger()
	ml.LogSyncEvent("ignored")
	ml.LogAppError("ignored")
	assert.NoError(t, ml.Close())
}

func TestLogCategory_IsValid(t *testing.T) {
	assert.True(t, CategorySync.IsValid())
	assert.False(t, LogCategory("download").IsValid())
}

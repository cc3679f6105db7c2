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

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)
	log.Info("hello", zap.String("k", "v"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "loud", OutputPath: "stderr"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

func TestMultiLogger_RequiresDir(t *testing.T) {
	_, err := NewMultiLogger(MultiLoggerConfig{})
	assert.Error(t, err)
}

func TestMultiLogger_TeeAndRead(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	log := ml.Tee(zap.NewNop())
	log.Info("download_enqueued", zap.Int64("id", 7))
	log.Info("downloads_pause", zap.Int64s("ids", []int64{7, 8}))
	log.Error("transition_failed", zap.String("op", "resume"))
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)
	now := time.Now()

	queue, err := reader.ReadLogs(CategoryQueue, now, 0)
	require.NoError(t, err)
	require.Len(t, queue, 3)
	assert.Equal(t, "download_enqueued", queue[0].Message)
	assert.Equal(t, "info", queue[0].Level)
	assert.Equal(t, float64(7), queue[0].Fields["id"])
	assert.NotEmpty(t, queue[0].Timestamp)

	errs, err := reader.ReadLogs(CategoryError, now, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "transition_failed", errs[0].Message)

	last, err := reader.ReadLogs(CategoryQueue, now, 1)
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "transition_failed", last[0].Message)

	found, err := reader.SearchLogs(CategoryQueue, now, "RESUME", 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "transition_failed", found[0].Message)
}

func TestLogReader_MissingFileAndPlainLines(t *testing.T) {
	dir := t.TempDir()
	reader := NewLogReader(dir)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	entries, err := reader.ReadLogs(CategoryQueue, day, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	path := CategoryLogPath(dir, CategoryQueue, day)
	assert.Equal(t, filepath.Join(dir, "queue-20240301.log"), path)
	require.NoError(t, os.WriteFile(path, []byte("not json\n\n"), 0644))

	entries, err = reader.ReadLogs(CategoryQueue, day, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "not json", entries[0].Message)
	assert.Equal(t, "queue", entries[0].Category)
}

func TestMultiLogger_RotatesAtMidnight(t *testing.T) {
	dir := t.TempDir()
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: dir})
	require.NoError(t, err)

	day1 := time.Date(2024, 3, 1, 23, 59, 0, 0, time.Local)
	day2 := day1.Add(2 * time.Minute)
	now := day1
	ml.now = func() time.Time { return now }

	log := ml.Tee(zap.NewNop())
	log.Info("before_midnight")
	now = day2
	log.Info("after_midnight")
	log.Error("failed_after_midnight")
	require.NoError(t, ml.Close())

	reader := NewLogReader(dir)

	first, err := reader.ReadLogs(CategoryQueue, day1, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "before_midnight", first[0].Message)

	second, err := reader.ReadLogs(CategoryQueue, day2, 0)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "after_midnight", second[0].Message)

	errs, err := reader.ReadLogs(CategoryError, day2, 0)
	require.NoError(t, err)
	require.Len(t, errs, 1)

	_, err = os.Stat(CategoryLogPath(dir, CategoryQueue, day2))
	assert.NoError(t, err)
}

func TestMultiLogger_WriteAfterClose(t *testing.T) {
	ml, err := NewMultiLogger(MultiLoggerConfig{Level: "info", LogsDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, ml.Close())

	_, err = ml.files[0].Write([]byte("{}\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

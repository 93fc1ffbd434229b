package database

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "spotprice.db"))
	require.NoError(t, err)
	db.SetLogger(slog.New(slog.DiscardHandler))
	t.Cleanup(db.Close)
	return db
}

func TestMigrate(t *testing.T) {
	db := newTestDatabase(t)

	var version int
	require.NoError(t, db.read.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, 1, version)

	// running again is a no-op
	require.NoError(t, db.migrate(context.Background()))
}

func TestLogEntries(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	start := time.Date(2024, time.April, 16, 12, 0, 0, 0, time.UTC)
	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError, slog.LevelWarn}
	for i, lvl := range levels {
		require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Level:     int(lvl),
			Message:   lvl.String(),
			Attrs:     `{"module":"test"}`,
		}))
	}

	entries, err := db.GetLogEntries(ctx, slog.LevelWarn, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, start.Add(4*time.Minute).Equal(entries[0].Timestamp))
	assert.Equal(t, "ERROR", entries[1].Message)

	page2, err := db.GetLogEntries(ctx, slog.LevelDebug, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "INFO", page2[1].Message)

	require.NoError(t, db.PurgeLog(ctx, 2))
	entries, err = db.GetLogEntries(ctx, slog.LevelDebug, 1, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestBackupAndPurge(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()
	now := time.Date(2024, time.April, 16, 2, 30, 0, 0, time.Local)

	old, err := db.backup(ctx, now.AddDate(0, 0, -10))
	require.NoError(t, err)
	recent, err := db.backup(ctx, now.AddDate(0, 0, -1))
	require.NoError(t, err)

	other := filepath.Join(db.backupDir(), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o600))

	require.NoError(t, db.purgeBackups(7, now))

	assert.NoFileExists(t, old)
	assert.FileExists(t, recent)
	assert.FileExists(t, other)
	assert.NoFileExists(t, recent[:len(recent)-len(".zip")])
}

func TestPurgeBackupsWithoutDirectory(t *testing.T) {
	db := newTestDatabase(t)
	assert.NoError(t, db.PurgeBackups(context.Background(), 7))
}

package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"trainbook/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformBackup(t *testing.T) {
	tmpDir := t.TempDir()
	storePath := filepath.Join(tmpDir, "trainBookings.json")
	backupDir := filepath.Join(tmpDir, "backups")

	require.NoError(t, os.WriteFile(storePath, []byte(`[]`), 0o644))

	svc := NewBackupService(storePath, config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, testLogger())

	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0].Name(), "backup_")

	data, err := os.ReadFile(filepath.Join(backupDir, files[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), data)
}

func TestPerformBackupMissingStore(t *testing.T) {
	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backups")

	svc := NewBackupService(filepath.Join(tmpDir, "missing.json"), config.BackupConfig{
		Enabled:     true,
		StoragePath: backupDir,
	}, testLogger())

	// Missing store file is not an error, just nothing to back up yet.
	require.NoError(t, svc.PerformBackup())

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestCleanupOldBackups(t *testing.T) {
	tmpDir := t.TempDir()
	backupDir := filepath.Join(tmpDir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	oldFile := filepath.Join(backupDir, "backup_old.json")
	require.NoError(t, os.WriteFile(oldFile, []byte(`[]`), 0o644))
	oldTime := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(backupDir, "backup_fresh.json")
	require.NoError(t, os.WriteFile(freshFile, []byte(`[]`), 0o644))

	svc := NewBackupService(filepath.Join(tmpDir, "store.json"), config.BackupConfig{
		Enabled:       true,
		StoragePath:   backupDir,
		RetentionDays: 7,
	}, testLogger())

	svc.CleanupOldBackups()

	_, err := os.Stat(oldFile)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshFile)
	assert.NoError(t, err)
}

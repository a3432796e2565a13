package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUserConfig(t *testing.T, content string) string {
	t.Helper()
	dir := GetUserConfigDir()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := GetUserConfigPath()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestBackupUserConfigNoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path, err := BackupUserConfig()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestBackupAndListUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeUserConfig(t, "settings:\n  cooldown_seconds: 42\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)
	require.NotEmpty(t, backupPath)
	assert.FileExists(t, backupPath)
	assert.Contains(t, filepath.Base(backupPath), BackupSuffix)

	backups, err := ListUserConfigBackups()
	require.NoError(t, err)
	assert.Contains(t, backups, backupPath)
}

func TestRestoreUserConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	writeUserConfig(t, "settings:\n  cooldown_seconds: 42\n")

	backupPath, err := BackupUserConfig()
	require.NoError(t, err)

	// Overwrite, then restore from the backup
	writeUserConfig(t, "settings:\n  cooldown_seconds: 99\n")
	require.NoError(t, RestoreUserConfig(backupPath))

	data, err := os.ReadFile(GetUserConfigPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "42")
}

func TestRestoreMissingBackup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	err := RestoreUserConfig(filepath.Join(t.TempDir(), "nope.bak"))
	require.Error(t, err)
}

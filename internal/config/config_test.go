package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.DataDir, cfg.DataDir)
	assert.Equal(t, filepath.Join(def.DataDir, "simplr.db"), cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.MaintenanceInterval)
	assert.True(t, cfg.Notifications)
	assert.Equal(t, "nord", cfg.Theme)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("data_dir: " + dir + "\nmaintenance_interval: 5m\nnotifications: false\ntheme: dracula\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, filepath.Join(dir, "simplr.db"), cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.MaintenanceInterval)
	assert.False(t, cfg.Notifications)
	assert.Equal(t, "dracula", cfg.Theme)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SIMPLR_THEME", "dracula")
	t.Setenv("SIMPLR_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dracula", cfg.Theme)
	assert.True(t, cfg.Debug)
}

func TestRejectsTinyInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("maintenance_interval: 10ms\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "must not overwrite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MaintenanceInterval, cfg.MaintenanceInterval)
	assert.Equal(t, DefaultConfig().DataDir, cfg.DataDir)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 115200, c.Port.BaudRate)
	assert.Equal(t, 5*time.Second, c.Timeouts.Default)
	assert.Equal(t, 64*1024, c.ChunkSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("port:\n  path: /dev/ttyUSB0\n  baud_rate: 9600\nchunk_size: 1024\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port.Path)
	assert.Equal(t, 9600, cfg.Port.BaudRate)
	assert.Equal(t, 1024, cfg.ChunkSize)
	// Fields the file didn't mention keep their default.
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Default)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	t.Setenv("SERIALIO_PORT_PATH", "/dev/ttyACM0")
	t.Setenv("SERIALIO_BAUD_RATE", "57600")
	t.Setenv("SERIALIO_TIMEOUT_DEFAULT", "2s")
	t.Setenv("SERIALIO_METRICS_ENABLED", "true")

	ApplyEnvOverrides(cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Port.Path)
	assert.Equal(t, 57600, cfg.Port.BaudRate)
	assert.Equal(t, 2*time.Second, cfg.Timeouts.Default)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadEffective_NoFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadEffective(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 115200, cfg.Port.BaudRate)
}

func TestLoadEffective_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port:\n  baud_rate: 9600\n"), 0o644))
	t.Setenv("SERIALIO_BAUD_RATE", "38400")

	cfg, err := LoadEffective(path)
	require.NoError(t, err)
	assert.Equal(t, 38400, cfg.Port.BaudRate)
}

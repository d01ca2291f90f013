package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 25*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, time.Minute, cfg.Sampler.Interval)
	assert.Equal(t, 5, cfg.Sampler.WarmupCount)
	assert.Equal(t, time.Second, cfg.Sampler.WarmupInterval)
	assert.Equal(t, 3, cfg.Log.Level)
	assert.Equal(t, "Local", cfg.Timezone)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  type: memory
sampler:
  interval: 10s
  warmup_count: 2
  warmup_interval: 500ms
log:
  dir: /tmp/cpu
  level: 4
  console: true
timezone: Asia/Seoul
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Equal(t, 10*time.Second, cfg.Sampler.Interval)
	assert.Equal(t, 2, cfg.Sampler.WarmupCount)
	assert.Equal(t, 500*time.Millisecond, cfg.Sampler.WarmupInterval)
	assert.Equal(t, "/tmp/cpu", cfg.Log.Dir)
	assert.True(t, cfg.Log.Console)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown storage": "storage:\n  type: postgres\n",
		"tiny interval":   "sampler:\n  interval: 100ms\n",
		"negative warmup": "sampler:\n  warmup_count: -1\n",
		"window too wide": "sampler:\n  interval: 10s\n  read_window: 10s\n",
		"bad level":       "log:\n  level: 9\n",
		"bad timezone":    "timezone: Mars/Olympus\n",
		"malformed":       "server: [\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

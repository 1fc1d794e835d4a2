package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInitLoadsConfigFromEnvPath(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
  mode: release
mysql:
  host: db.internal
  port: 3306
  user: tunneld
  database: tunneld
archive:
  queue_size: 500
  batch_size: 50
scheduler:
  cleanup_rule: "daily 04:00"
cleanup:
  enabled: true
  traffic_retention_days: 45
`)
	t.Setenv("CONFIG_PATH", path)

	require.NoError(t, Init())

	assert.Equal(t, 9090, GlobalConfig.Server.Port)
	assert.Equal(t, "db.internal", GlobalConfig.MySQL.Host)
	assert.Equal(t, 500, GlobalConfig.Archive.QueueSize)
	assert.Equal(t, 50, GlobalConfig.Archive.BatchSize)
	assert.Equal(t, "daily 04:00", GlobalConfig.Scheduler.CleanupRule)
	assert.Equal(t, 45, GlobalConfig.Cleanup.TrafficRetentionDays)

	// omitted values filled with defaults
	assert.Equal(t, 2, GlobalConfig.Archive.Workers)
	assert.Equal(t, 30, GlobalConfig.Archive.FlushIntervalSec)
	assert.Equal(t, 60, GlobalConfig.Scheduler.PollIntervalSec)
	assert.Equal(t, "hourly", GlobalConfig.Scheduler.ArchiveRule)
	assert.Equal(t, 30, GlobalConfig.Cleanup.StatusRetentionDays)
}

func TestInitMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, Init())
}

func TestInitMalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "server: [not a mapping")
	t.Setenv("CONFIG_PATH", path)
	assert.Error(t, Init())
}

func TestValidateAndApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.Archive.QueueSize = -10
	cfg.Scheduler.TaskTimeoutMin = 0
	cfg.Cleanup.StatusRetentionDays = -1

	validateAndApplyDefaults(cfg)

	assert.Equal(t, DefaultArchiveConfig(), cfg.Archive)
	assert.Equal(t, DefaultSchedulerConfig(), cfg.Scheduler)
	assert.Equal(t, DefaultCleanupConfig().StatusRetentionDays, cfg.Cleanup.StatusRetentionDays)
	assert.Equal(t, DefaultCleanupConfig().TrafficRetentionDays, cfg.Cleanup.TrafficRetentionDays)
}

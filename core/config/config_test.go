package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "calendar.db", cfg.Database.Name)
	assert.Equal(t, "timetable", cfg.Storage.Bucket)
	assert.Equal(t, "dir", cfg.Source.Kind)
	assert.Equal(t, "schedule", cfg.Source.Dir)
	assert.False(t, cfg.Source.AllowEmpty)
	assert.Equal(t, "google", cfg.Remote.Kind)
	assert.Equal(t, "primary", cfg.Remote.CalendarID)
	assert.Equal(t, 50, cfg.Remote.MinDelayMs)
	assert.Equal(t, "0 0 * * * *", cfg.Schedule.Cron)
	assert.True(t, cfg.Schedule.RunOnStart)
	assert.Equal(t, "local", cfg.Schedule.Lock)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_FileEnvAndDotEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
remote:
  kind: ics
  timezone: UTC
source:
  kind: bucket
  prefix: raw/
schedule:
  cron: "0 */30 * * * *"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("REMOTE_CALENDAR_ID=team@example.com\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("REMOTE_CALENDAR_ID") })
	t.Setenv("SOURCE_PREFIX", "override/")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "ics", cfg.Remote.Kind)
	assert.Equal(t, "UTC", cfg.Remote.Timezone)
	assert.Equal(t, "team@example.com", cfg.Remote.CalendarID)
	assert.Equal(t, "bucket", cfg.Source.Kind)
	assert.Equal(t, "override/", cfg.Source.Prefix)
	assert.Equal(t, "0 */30 * * * *", cfg.Schedule.Cron)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("remote: [unclosed"), 0o600))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, time.Minute, cfg.Server.RateLimit.Window)

	require.Equal(t, "sqlite", cfg.Database.Driver)

	require.Equal(t, "https://educationdata.urban.org/api/v1", cfg.Directory.BaseURL)
	require.Equal(t, "ccd", cfg.Directory.Dataset)
	require.Equal(t, "urban_educationdata_ccd_api", cfg.Directory.DataOrigin)
	require.Equal(t, 2023, cfg.Directory.DatasetYear)
	require.Equal(t, 30, cfg.Directory.CacheTTLDays)

	require.False(t, cfg.Gate.Enabled)
	require.Equal(t, 7*24*time.Hour, cfg.Gate.TokenTTL)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@daily", cfg.Maintenance.Schedule)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
server:
  port: 9100
  log_level: debug
directory:
  dataset_year: 2022
  cache_ttl_days: 7
gate:
  enabled: true
  password: "letmein"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, 2022, cfg.Directory.DatasetYear)
	require.Equal(t, 7, cfg.Directory.CacheTTLDays)
	require.True(t, cfg.Gate.Enabled)
	require.Equal(t, "letmein", cfg.Gate.Password)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	content := `
directory:
  cache_ttl_days: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cache TTL")
}

func TestLoadConfigRejectsEnabledGateWithoutPassword(t *testing.T) {
	dir := t.TempDir()
	content := `
gate:
  enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	_, err := LoadConfig(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "gate")
}

func TestDirectoryConfigService(t *testing.T) {
	cfg := DirectoryConfig{
		BaseURL:      "https://directory.test/api/v1",
		Dataset:      "ccd",
		DataOrigin:   "origin",
		DatasetYear:  2023,
		CacheTTLDays: 14,
	}

	svc := cfg.Service()
	require.Equal(t, cfg.BaseURL, svc.BaseURL)
	require.Equal(t, cfg.CacheTTLDays, svc.CacheTTLDays)
}

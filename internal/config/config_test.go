package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  endpoint: "https://api.trackpro.test/v1"
  timeout: "3s"
  shared_refresh: true
session:
  file: "/tmp/trackpro-test/session.json"
  redis_addr: "127.0.0.1:6379"
  ttl: "1h"
log:
  level: "debug"
  format: "json"
metrics:
  enabled: true
  addr: ":9100"
audit:
  file: "/tmp/trackpro-test/audit.log"
`

const brokenYAML = `
api: [unclosed
`

func TestLoad_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://api.trackpro.test/v1", cfg.API.Endpoint)
	require.Equal(t, "/token/refresh", cfg.API.RefreshPath)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.True(t, cfg.API.SharedRefresh)
	require.True(t, cfg.Session.UseRedis())
	require.Equal(t, time.Hour, cfg.Session.TTL)
	require.Equal(t, "default", cfg.Session.Name)
	require.Equal(t, slog.LevelDebug, cfg.Log.SlogLevel())
	require.True(t, cfg.Metrics.Enabled)
	require.Equal(t, "/tmp/trackpro-test/audit.log", cfg.Audit.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cfg.yaml", sampleYAML)
	t.Setenv("TRACKPRO_ENDPOINT", "http://localhost:9999/v1")
	t.Setenv("TRACKPRO_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:9999/v1", cfg.API.Endpoint)
	require.Equal(t, slog.LevelError, cfg.Log.SlogLevel())
}

func TestLoad_EnvOnlyDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TRACKPRO_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/v1", cfg.API.Endpoint)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.False(t, cfg.Session.UseRedis())
	require.Equal(t, DefaultSessionFile(), cfg.Session.File)
	require.Equal(t, slog.LevelWarn, cfg.Log.SlogLevel())
}

func TestLoad_LocalFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, LocalFile, "env: \"stage\"\n")
	chdir(t, dir)
	t.Setenv("TRACKPRO_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_ConfigEnvPath(t *testing.T) {
	path := writeFile(t, t.TempDir(), "env.yaml", "env: \"ci\"\n")
	t.Setenv("TRACKPRO_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "ci", cfg.Env)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorContains(t, err, "stat failed")

	_, err = Load(writeFile(t, dir, "broken.yaml", brokenYAML))
	require.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeFile(t, dir, "bad-endpoint.yaml", "api:\n  endpoint: \"ftp://x\"\n"))
	require.ErrorContains(t, err, "invalid api.endpoint")

	_, err = Load(writeFile(t, dir, "bad-format.yaml", "log:\n  format: \"xml\"\n"))
	require.ErrorContains(t, err, "invalid log.format")
}

func TestMustLoad_Panics(t *testing.T) {
	require.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "nope.yaml")) })
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, LogConfig{Level: in}.SlogLevel(), in)
	}
}

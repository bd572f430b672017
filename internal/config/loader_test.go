package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  host: "127.0.0.1"
  port: 9090
  mode: "test"
log:
  level: "debug"
cache:
  redis:
    enabled: true
    addr: "redis:6379"
engine:
  matching:
    connection_threshold: 0.6
  chains:
    max_hops: 3
  geography:
    regions:
      - name: "Benelux"
        bloc: "europe"
        places: ["Brussels", "Rotterdam"]
`

func createTempConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Cache.Redis.Addr)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, 0.6, cfg.Engine.Matching.ConnectionThreshold)
	assert.Equal(t, 3, cfg.Engine.Chains.MaxHops)
	require.Len(t, cfg.Engine.Geography.Regions, 1)
	assert.Equal(t, []string{"Brussels", "Rotterdam"}, cfg.Engine.Geography.Regions[0].Places)
	// untouched sections fall back to defaults
	assert.Equal(t, DefaultGlobalCap, cfg.Engine.Generator.GlobalCap)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "server: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := createTempConfigFile(t, "server:\n  mode: \"prod\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.mode")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("SYMBIOLINK_SERVER_PORT", "7070")
	t.Setenv("SYMBIOLINK_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SYMBIOLINK_CACHE_REDIS_ADDR", "cache.internal:6380")
	t.Setenv("SYMBIOLINK_ENGINE_STRICT", "true")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", cfg.Cache.Redis.Addr)
	assert.True(t, cfg.Engine.Strict)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestMustLoad_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

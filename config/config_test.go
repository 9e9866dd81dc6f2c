package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SENSOR_ANALYZER_CONFIG", "SENSOR_ANALYZER_SERVER_ADDRESS", "SENSOR_ANALYZER_GRACEFUL_TIMEOUT",
		"SENSOR_ANALYZER_REDIS_ENABLED", "REDIS_ADDR", "SENSOR_ANALYZER_REDIS_ADDR",
		"SENSOR_ANALYZER_REDIS_PASSWORD", "SENSOR_ANALYZER_REDIS_DB", "SENSOR_ANALYZER_REDIS_TTL",
		"SENSOR_ANALYZER_INPUT", "ANALYTICS_WORKERS", "SENSOR_ANALYZER_OUTPUT_DIR",
		"SENSOR_ANALYZER_LOG_LEVEL", "SENSOR_ANALYZER_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "test_data", cfg.Input.Path)
	assert.Equal(t, "test_data_reports", cfg.Output.Dir)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.ResultTTL)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: ":9090"
  gracefulTimeout: 3s
redis:
  enabled: true
  addr: "cache:6379"
  resultTTL: 1m
input:
  path: /data/in
  workers: 2
logging:
  level: debug
`), 0o644))

	t.Setenv("SENSOR_ANALYZER_OUTPUT_DIR", "/data/out")
	t.Setenv("SENSOR_ANALYZER_LOG_FORMAT", "json")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 3*time.Second, cfg.Server.GracefulTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout, "unset keys keep defaults")
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.ResultTTL)
	assert.Equal(t, "/data/in", cfg.Input.Path)
	assert.Equal(t, 2, cfg.Input.Workers)
	assert.Equal(t, "/data/out", cfg.Output.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: reports\n"), 0o644))
	t.Setenv("SENSOR_ANALYZER_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "reports", cfg.Output.Dir)
}

func TestLogFormatEnvSwitchesBothWays(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "analyzer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  json: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Logging.JSON)

	t.Setenv("SENSOR_ANALYZER_LOG_FORMAT", "text")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Logging.JSON)

	t.Setenv("SENSOR_ANALYZER_LOG_FORMAT", "JSON")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Logging.JSON)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))

	_, err := Load(path)
	require.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"empty address":    func(c *Config) { c.Server.Address = "" },
		"body limit":       func(c *Config) { c.Server.MaxBodyBytes = 0 },
		"redis addr":       func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" },
		"negative ttl":     func(c *Config) { c.Redis.ResultTTL = -time.Second },
		"negative pool":    func(c *Config) { c.Redis.PoolSize = -1 },
		"too many workers": func(c *Config) { c.Input.Workers = 64 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())
}

package main

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
	envVars := []string{
		"AISTACK_SERVER_HOST",
		"AISTACK_SERVER_PORT",
		"AISTACK_UPSTREAMS_TTS_URL",
		"AISTACK_UPSTREAMS_TTS_MAX_INFLIGHT",
		"AISTACK_UPSTREAMS_COMFY_URL",
		"AISTACK_UPSTREAMS_COMFY_MAX_INFLIGHT",
		"AISTACK_HEALTH_INTERVAL",
		"AISTACK_LOG_LEVEL",
		"AISTACK_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}

func TestLoadConfig_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 10*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Upstreams.TTS.URL)
	assert.Equal(t, 2, cfg.Upstreams.TTS.MaxInflight)
	assert.Equal(t, "http://127.0.0.1:8001", cfg.Upstreams.Comfy.URL)
	assert.Equal(t, 1, cfg.Upstreams.Comfy.MaxInflight)
	assert.Equal(t, 15*time.Second, cfg.Health.Interval)
	assert.Equal(t, 5*time.Second, cfg.Health.Timeout)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000

upstreams:
  tts:
    url: "http://tts.internal:8000"
    max_inflight: 4
  comfy:
    url: "http://comfy.internal:8001"
    max_inflight: 2

health:
  interval: 30s
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address())
	assert.Equal(t, "http://tts.internal:8000", cfg.Upstreams.TTS.URL)
	assert.Equal(t, 4, cfg.Upstreams.TTS.MaxInflight)
	assert.Equal(t, 2, cfg.Upstreams.Comfy.MaxInflight)
	assert.Equal(t, 30*time.Second, cfg.Health.Interval)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("AISTACK_UPSTREAMS_TTS_URL", "http://10.0.0.5:8000")
	t.Setenv("AISTACK_UPSTREAMS_COMFY_MAX_INFLIGHT", "3")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000", cfg.Upstreams.TTS.URL)
	assert.Equal(t, 3, cfg.Upstreams.Comfy.MaxInflight)
}

func TestHealthURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:8000/health", healthURL("http://127.0.0.1:8000", "/health"))
	assert.Equal(t, "http://127.0.0.1:8001/system_stats", healthURL("http://127.0.0.1:8001/", "/system_stats"))
}

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Config Loading Tests
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"AISTACK_REGISTRY_HOST",
		"AISTACK_REGISTRY_USERNAME",
		"AISTACK_REGISTRY_TAG",
		"AISTACK_STACK_COMPOSE_FILE",
		"AISTACK_STACK_PROJECT",
		"AISTACK_STACK_DATA_DIR",
		"AISTACK_DOCKER_HOST",
		"AISTACK_JOURNAL_DSN",
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

	assert.Equal(t, "docker.io", cfg.Registry.Host)
	assert.Equal(t, "latest", cfg.Registry.Tag)
	assert.Equal(t, "./compose.yaml", cfg.Stack.ComposeFile)
	assert.Equal(t, "aistack", cfg.Stack.Project)
	assert.Equal(t, "./data", cfg.Stack.DataDir)
	assert.Equal(t, "./data/aistack.db", cfg.Journal.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)

	configContent := `
registry:
  host: "registry.example.com"
  username: "acme"
  tag: "v3"

stack:
  compose_file: "./stacks/prod.yaml"
  project: "prod"
  data_dir: "/srv/aistack"

journal:
  dsn: "/srv/aistack/journal.db"

log:
  level: "debug"
  format: "json"
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(configContent), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "registry.example.com", cfg.Registry.Host)
	assert.Equal(t, "acme", cfg.Registry.Username)
	assert.Equal(t, "v3", cfg.Registry.Tag)
	assert.Equal(t, "./stacks/prod.yaml", cfg.Stack.ComposeFile)
	assert.Equal(t, "prod", cfg.Stack.Project)
	assert.Equal(t, "/srv/aistack/journal.db", cfg.Journal.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfig_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("AISTACK_REGISTRY_USERNAME", "envuser")
	t.Setenv("AISTACK_REGISTRY_TAG", "nightly")
	t.Setenv("AISTACK_STACK_PROJECT", "envstack")
	t.Setenv("AISTACK_LOG_LEVEL", "warn")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "envuser", cfg.Registry.Username)
	assert.Equal(t, "nightly", cfg.Registry.Tag)
	assert.Equal(t, "envstack", cfg.Stack.Project)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "docker.io", cfg.Registry.Host)
	assert.Equal(t, "aistack", cfg.Stack.Project)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	clearEnv(t)

	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("registry: [unclosed"), 0644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		cfg := &Config{Log: LogConfig{Level: level, Format: "text"}}
		assert.NotNil(t, SetupLogger(cfg))
	}
}

package stack

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Fixtures
// =============================================================================

const minimalManifest = `
services:
  app:
    image: nginx:latest
`

const aiStackManifest = `
services:
  indextts:
    build:
      context: ./indextts
      dockerfile: Dockerfile
    ports:
      - "8000:8000"
    environment:
      MODEL_PATH: ${MODEL_PATH:-/models}
      USE_FP16: ${USE_FP16:-true}
    volumes:
      - type: bind
        source: ./data/indextts/models
        target: /models

  comfyui:
    build:
      context: ./comfyui
    ports:
      - "8001:8188"
    environment:
      COMFYUI_MODEL_PATH: ${COMFYUI_MODEL_PATH:-/models}
    volumes:
      - type: bind
        source: ./data/comfyui/output
        target: /output
`

const dependencyManifest = `
services:
  web:
    image: nginx:latest
    depends_on:
      - api
  api:
    image: api:1.0
    depends_on:
      - db
  db:
    image: postgres:15
    volumes:
      - pgdata:/var/lib/postgresql/data

volumes:
  pgdata:
`

// =============================================================================
// Parsing
// =============================================================================

func TestParseManifest_EmptyInput(t *testing.T) {
	_, err := ParseManifest("")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseManifest_WhitespaceOnly(t *testing.T) {
	_, err := ParseManifest("   \n\t  ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParseManifest_InvalidYAML(t *testing.T) {
	_, err := ParseManifest("services: [unclosed")
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParseManifest_NoServices(t *testing.T) {
	_, err := ParseManifest("volumes:\n  data:\n")
	require.Error(t, err)
}

func TestParseManifest_MinimalValid(t *testing.T) {
	manifest, err := ParseManifest(minimalManifest)
	require.NoError(t, err)
	require.Len(t, manifest.Services, 1)
	assert.Equal(t, "app", manifest.Services[0].Name)
	assert.Equal(t, "nginx:latest", manifest.Services[0].Image)
}

func TestParseManifest_BuildConfig(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	tts := manifest.Service("indextts")
	require.NotNil(t, tts)
	require.NotNil(t, tts.Build)
	assert.Equal(t, "./indextts", tts.Build.Context)
	assert.Equal(t, "Dockerfile", tts.Build.Dockerfile)

	comfy := manifest.Service("comfyui")
	require.NotNil(t, comfy)
	require.NotNil(t, comfy.Build)
	assert.Equal(t, "./comfyui", comfy.Build.Context)
}

func TestParseManifest_Ports(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	tts := manifest.Service("indextts")
	require.Len(t, tts.Ports, 1)
	assert.Equal(t, uint32(8000), tts.Ports[0].Target)
	assert.Equal(t, uint32(8000), tts.Ports[0].Published)

	comfy := manifest.Service("comfyui")
	require.Len(t, comfy.Ports, 1)
	assert.Equal(t, uint32(8188), comfy.Ports[0].Target)
	assert.Equal(t, uint32(8001), comfy.Ports[0].Published)
}

func TestParseManifest_BindVolumes(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	// The parser keeps sources relative to the manifest; resolution to
	// absolute paths happens in ResolveRelativePaths before deployment.
	tts := manifest.Service("indextts")
	require.Len(t, tts.Volumes, 1)
	assert.Equal(t, VolumeMountTypeBind, tts.Volumes[0].Type)
	assert.False(t, filepath.IsAbs(tts.Volumes[0].Source))
	assert.True(t, strings.HasSuffix(tts.Volumes[0].Source, "data/indextts/models"))
	assert.Equal(t, "/models", tts.Volumes[0].Target)

	ResolveRelativePaths(manifest, "/srv/aistack")
	assert.Equal(t, filepath.Join("/srv/aistack", "data", "indextts", "models"),
		tts.Volumes[0].Source)
}

func TestParseManifest_EnvironmentDefaults(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	tts := manifest.Service("indextts")
	assert.Equal(t, "/models", tts.Environment["MODEL_PATH"])
	assert.Equal(t, "true", tts.Environment["USE_FP16"])
}

func TestParseManifestWithEnv_Overrides(t *testing.T) {
	env := map[string]string{
		"MODEL_PATH": "/mnt/big/models",
		"USE_FP16":   "false",
	}
	manifest, err := ParseManifestWithEnv(aiStackManifest, env)
	require.NoError(t, err)

	tts := manifest.Service("indextts")
	assert.Equal(t, "/mnt/big/models", tts.Environment["MODEL_PATH"])
	assert.Equal(t, "false", tts.Environment["USE_FP16"])

	// Unset variables still fall back to defaults
	comfy := manifest.Service("comfyui")
	assert.Equal(t, "/models", comfy.Environment["COMFYUI_MODEL_PATH"])
}

func TestParseManifest_Dependencies(t *testing.T) {
	manifest, err := ParseManifest(dependencyManifest)
	require.NoError(t, err)

	web := manifest.Service("web")
	require.NotNil(t, web)
	assert.Equal(t, []string{"api"}, web.DependsOn)
}

func TestParseManifest_UnknownDependency(t *testing.T) {
	_, err := ParseManifest(`
services:
  web:
    image: nginx:latest
    depends_on:
      - ghost
`)
	require.Error(t, err)
}

func TestParseManifest_CircularDependency(t *testing.T) {
	_, err := ParseManifest(`
services:
  a:
    image: a:1
    depends_on:
      - b
  b:
    image: b:1
    depends_on:
      - a
`)
	assert.Error(t, err)
}

func TestParseManifest_SecretsUnsupported(t *testing.T) {
	_, err := ParseManifest(`
services:
  app:
    image: nginx:latest
secrets:
  token:
    file: ./token.txt
`)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}

// =============================================================================
// Manifest Helpers
// =============================================================================

func TestManifest_Service(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	assert.NotNil(t, manifest.Service("indextts"))
	assert.Nil(t, manifest.Service("nope"))
}

func TestManifest_Buildable(t *testing.T) {
	manifest, err := ParseManifest(aiStackManifest)
	require.NoError(t, err)

	buildable := manifest.Buildable()
	require.Len(t, buildable, 2)
	names := []string{buildable[0].Name, buildable[1].Name}
	assert.Contains(t, names, "indextts")
	assert.Contains(t, names, "comfyui")
}

func TestManifest_BuildableSkipsImageOnly(t *testing.T) {
	manifest, err := ParseManifest(minimalManifest)
	require.NoError(t, err)
	assert.Empty(t, manifest.Buildable())
}

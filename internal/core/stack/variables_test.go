package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteVariables_Simple(t *testing.T) {
	vars := map[string]string{"MODEL_PATH": "/mnt/models"}
	assert.Equal(t, "/mnt/models", SubstituteVariables("${MODEL_PATH}", vars))
}

func TestSubstituteVariables_Default(t *testing.T) {
	assert.Equal(t, "/models", SubstituteVariables("${MODEL_PATH:-/models}", nil))
}

func TestSubstituteVariables_SetOverridesDefault(t *testing.T) {
	vars := map[string]string{"USE_FP16": "false"}
	assert.Equal(t, "false", SubstituteVariables("${USE_FP16:-true}", vars))
}

func TestSubstituteVariables_UnsetNoDefault(t *testing.T) {
	assert.Equal(t, "", SubstituteVariables("${MISSING}", nil))
}

func TestSubstituteVariables_Mixed(t *testing.T) {
	vars := map[string]string{"HOST": "localhost"}
	got := SubstituteVariables("http://${HOST}:${PORT:-8000}/health", vars)
	assert.Equal(t, "http://localhost:8000/health", got)
}

func TestSubstituteVariables_NoPlaceholders(t *testing.T) {
	assert.Equal(t, "plain", SubstituteVariables("plain", map[string]string{"X": "y"}))
}

func TestExtractVariables(t *testing.T) {
	yaml := `
environment:
  MODEL_PATH: ${MODEL_PATH:-/models}
  MAX_WORKERS: ${MAX_WORKERS}
`
	vars := ExtractVariables(yaml)
	assert.Contains(t, vars, "MODEL_PATH")
	assert.Contains(t, vars, "MAX_WORKERS")
}

func TestExtractVariables_None(t *testing.T) {
	assert.Empty(t, ExtractVariables("services:\n  app:\n    image: nginx\n"))
}

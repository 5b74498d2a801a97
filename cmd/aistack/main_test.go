package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Argument Handling Tests
// =============================================================================

func TestRun_NoArguments(t *testing.T) {
	assert.Equal(t, ExitUsage, run(nil))
}

func TestRun_TooManyArguments(t *testing.T) {
	assert.Equal(t, ExitUsage, run([]string{"build", "deploy"}))
	assert.Equal(t, ExitUsage, run([]string{"history", "id1", "id2"}))
}

func TestArgsValid(t *testing.T) {
	assert.True(t, argsValid("build", nil))
	assert.True(t, argsValid("history", nil))
	assert.True(t, argsValid("history", []string{"b37a1c2e"}))
	assert.False(t, argsValid("history", []string{"a", "b"}))
	assert.False(t, argsValid("stop", []string{"extra"}))
}

func TestRun_UnknownCommand(t *testing.T) {
	clearEnv(t)
	assert.Equal(t, ExitUsage, run([]string{"destroy"}))
}

func TestRun_UnknownFlag(t *testing.T) {
	assert.Equal(t, ExitUsage, run([]string{"-bogus", "build"}))
}

func TestRun_Version(t *testing.T) {
	// version must not require config, Docker or the journal
	assert.Equal(t, ExitSuccess, run([]string{"version"}))
}

// =============================================================================
// Dispatch Tests
// =============================================================================

func TestDispatch_UnknownCommandNeedsNoConnections(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}

	// Unknown commands are rejected before Docker or the journal are touched
	assert.Equal(t, ExitUsage, dispatch("destroy", nil, false, cfg, SetupLogger(cfg)))
}

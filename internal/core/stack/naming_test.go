package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkName(t *testing.T) {
	assert.Equal(t, "aistack_default", NetworkName("aistack"))
}

func TestVolumeName(t *testing.T) {
	assert.Equal(t, "aistack_models", VolumeName("aistack", "models"))
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "aistack_indextts", ContainerName("aistack", "indextts"))
	assert.Equal(t, "aistack_comfyui", ContainerName("aistack", "comfyui"))
}

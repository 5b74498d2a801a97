package stack

import "fmt"

// =============================================================================
// Resource Naming Functions
// =============================================================================

// NetworkName generates the network name for a project.
// Pattern: {project}_default
//
// Example:
//
//	NetworkName("aistack") // returns "aistack_default"
func NetworkName(project string) string {
	return fmt.Sprintf("%s_default", project)
}

// VolumeName generates a volume name for a named volume in a project.
// Pattern: {project}_{volumeName}
//
// Example:
//
//	VolumeName("aistack", "models") // returns "aistack_models"
func VolumeName(project, volumeName string) string {
	return fmt.Sprintf("%s_%s", project, volumeName)
}

// ContainerName generates a container name for a service in a project.
// Pattern: {project}_{serviceName}
//
// Example:
//
//	ContainerName("aistack", "indextts") // returns "aistack_indextts"
func ContainerName(project, serviceName string) string {
	return fmt.Sprintf("%s_%s", project, serviceName)
}

package docker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/pkg/stdcopy"

	"github.com/artfold/aistack/internal/core/stack"
)

// =============================================================================
// Orchestrator - Manages the Stack Lifecycle
// =============================================================================

// Orchestrator runs a parsed stack manifest against the Docker Engine:
// network, named volumes and containers in dependency order.
type Orchestrator struct {
	docker Client
	logger *slog.Logger
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(docker Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		docker: docker,
		logger: logger,
	}
}

// =============================================================================
// Stack Up
// =============================================================================

// Up creates and starts all containers for the stack.
// images maps service names to image references for services built locally;
// variables feed ${VAR} substitution in service environment values.
// Returns info for all started containers.
func (o *Orchestrator) Up(ctx context.Context, project string, manifest *stack.Manifest, images map[string]string, variables map[string]string) ([]ContainerInfo, error) {
	o.logger.Info("starting stack",
		"project", project,
		"services", len(manifest.Services),
	)

	// 1. Create the stack network
	networkName := stack.NetworkName(project)
	networkID, err := o.ensureNetwork(project, networkName)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	o.logger.Debug("network ready", "network_id", networkID, "network_name", networkName)

	// 2. Create named volumes
	for _, vol := range manifest.Volumes {
		if vol.External {
			continue
		}
		volumeName := stack.VolumeName(project, vol.Name)
		if err := o.ensureVolume(project, volumeName); err != nil {
			return nil, fmt.Errorf("failed to create volume %s: %w", vol.Name, err)
		}
		o.logger.Debug("volume ready", "volume_name", volumeName)
	}

	// 3. Pull images that are neither local nor built here
	for _, svc := range manifest.Services {
		imageRef := o.imageFor(svc, images)
		if imageRef == "" {
			return nil, fmt.Errorf("service %s has no image and no built reference", svc.Name)
		}
		exists, _ := o.docker.ImageExists(imageRef)
		if !exists {
			o.logger.Info("pulling image", "image", imageRef)
			if err := o.docker.PullImage(imageRef, PullOptions{}); err != nil {
				return nil, fmt.Errorf("failed to pull image %s: %w", imageRef, err)
			}
		}
	}

	// 4. Reuse containers from a previous run of the same project
	existing, _ := o.docker.ListContainers(ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", LabelProject, project),
		},
	})
	existingByService := make(map[string]ContainerInfo)
	for _, c := range existing {
		if svc, ok := c.Labels[LabelService]; ok {
			existingByService[svc] = c
		}
	}

	// 5. Create and start containers in dependency order
	var containers []ContainerInfo
	created := make(map[string]string) // serviceName -> containerID

	for _, svc := range stack.TopologicalSort(manifest.Services) {
		var containerID string

		if prior, found := existingByService[svc.Name]; found {
			containerID = prior.ID
			o.logger.Debug("using existing container", "service", svc.Name, "container_id", shortID(containerID))
		} else {
			spec := o.buildContainerSpec(project, svc, networkName, images, variables)
			containerID, err = o.docker.CreateContainer(spec)
			if err != nil {
				o.cleanupContainers(created)
				return nil, fmt.Errorf("failed to create container %s: %w", svc.Name, err)
			}
			o.logger.Debug("created container", "service", svc.Name, "container_id", shortID(containerID))
		}

		created[svc.Name] = containerID

		if err := o.docker.StartContainer(containerID); err != nil {
			if !strings.Contains(err.Error(), "already running") {
				o.cleanupContainers(created)
				return nil, fmt.Errorf("failed to start container %s: %w", svc.Name, err)
			}
		}
		o.logger.Debug("started container", "service", svc.Name, "container_id", shortID(containerID))

		info, err := o.docker.InspectContainer(containerID)
		if err != nil {
			o.cleanupContainers(created)
			return nil, fmt.Errorf("failed to inspect container %s: %w", svc.Name, err)
		}
		containers = append(containers, *info)
	}

	o.logger.Info("stack started",
		"project", project,
		"containers", len(containers),
	)

	return containers, nil
}

// =============================================================================
// Stack Down
// =============================================================================

// Down stops and removes all stack containers, then the network.
// Named volumes are kept; model caches and generated output survive a stop.
func (o *Orchestrator) Down(ctx context.Context, project string) error {
	o.logger.Info("stopping stack", "project", project)

	containers, err := o.docker.ListContainers(ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", LabelProject, project),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	timeout := 10 * time.Second
	for _, c := range containers {
		if c.Status == ContainerStatusRunning {
			o.logger.Debug("stopping container", "container_id", shortID(c.ID), "name", c.Name)
			if err := o.docker.StopContainer(c.ID, &timeout); err != nil {
				o.logger.Warn("failed to stop container", "container_id", shortID(c.ID), "error", err)
			}
		}
		if err := o.docker.RemoveContainer(c.ID, RemoveOptions{Force: true, RemoveVolumes: false}); err != nil {
			o.logger.Warn("failed to remove container", "container_id", shortID(c.ID), "error", err)
		} else {
			o.logger.Debug("removed container", "container_id", shortID(c.ID))
		}
	}

	networkName := stack.NetworkName(project)
	if err := o.docker.RemoveNetwork(networkName); err != nil {
		o.logger.Warn("failed to remove network", "network", networkName, "error", err)
	} else {
		o.logger.Debug("removed network", "network", networkName)
	}

	o.logger.Info("stack stopped", "project", project, "containers_removed", len(containers))
	return nil
}

// =============================================================================
// Stack Status
// =============================================================================

// Status returns the current container state for the stack.
func (o *Orchestrator) Status(ctx context.Context, project string) ([]ContainerInfo, error) {
	return o.docker.ListContainers(ListOptions{
		All: true,
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", LabelProject, project),
		},
	})
}

// =============================================================================
// Log Streaming
// =============================================================================

// StreamLogs follows the logs of every stack container, demultiplexes the
// engine's stream format, and writes service-prefixed lines to out.
// Blocks until ctx is cancelled or all log streams close.
func (o *Orchestrator) StreamLogs(ctx context.Context, project string, out io.Writer) error {
	containers, err := o.docker.ListContainers(ListOptions{
		Filters: map[string]string{
			"label": fmt.Sprintf("%s=%s", LabelProject, project),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	if len(containers) == 0 {
		return fmt.Errorf("no running containers for project %s", project)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex // serializes writes to out across containers

	for _, c := range containers {
		service := c.Labels[LabelService]
		if service == "" {
			service = c.Name
		}

		reader, err := o.docker.ContainerLogs(ctx, c.ID, LogOptions{
			Follow: true,
			Tail:   "10",
		})
		if err != nil {
			o.logger.Warn("failed to attach to logs", "service", service, "error", err)
			continue
		}

		wg.Add(1)
		go func(service string, reader io.ReadCloser) {
			defer wg.Done()
			defer reader.Close()

			// Close the stream when the context ends so StdCopy unblocks
			go func() {
				<-ctx.Done()
				reader.Close()
			}()

			w := &prefixWriter{prefix: service, out: out, mu: &mu}
			_, _ = stdcopy.StdCopy(w, w, reader)
			w.Flush()
		}(service, reader)
	}

	wg.Wait()
	return ctx.Err()
}

// prefixWriter writes "service | line" for each log line, buffering partial
// lines between writes.
type prefixWriter struct {
	prefix string
	out    io.Writer
	mu     *sync.Mutex
	buf    bytes.Buffer
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Partial line: keep it buffered for the next write
			w.buf.WriteString(line)
			break
		}
		w.mu.Lock()
		fmt.Fprintf(w.out, "%-10s | %s", w.prefix, line)
		w.mu.Unlock()
	}
	return len(p), nil
}

// Flush writes any buffered partial line.
func (w *prefixWriter) Flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.mu.Lock()
	fmt.Fprintf(w.out, "%-10s | %s\n", w.prefix, w.buf.String())
	w.mu.Unlock()
	w.buf.Reset()
}

// =============================================================================
// Helper Methods
// =============================================================================

// ensureNetwork creates the stack network or reuses an existing one.
func (o *Orchestrator) ensureNetwork(project, networkName string) (string, error) {
	networkID, err := o.docker.CreateNetwork(NetworkSpec{
		Name:   networkName,
		Driver: "bridge",
		Labels: map[string]string{
			LabelManaged: "true",
			LabelProject: project,
		},
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			o.logger.Debug("network already exists, reusing", "network_name", networkName)
			return networkName, nil
		}
		return "", err
	}
	return networkID, nil
}

// ensureVolume creates a named volume or reuses an existing one.
func (o *Orchestrator) ensureVolume(project, volumeName string) error {
	_, err := o.docker.CreateVolume(VolumeSpec{
		Name: volumeName,
		Labels: map[string]string{
			LabelManaged: "true",
			LabelProject: project,
		},
	})
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return err
	}
	return nil
}

// imageFor resolves the image reference for a service: built images take
// precedence, then the manifest's image field.
func (o *Orchestrator) imageFor(svc stack.Service, images map[string]string) string {
	if ref, ok := images[svc.Name]; ok && ref != "" {
		return ref
	}
	return svc.Image
}

// buildContainerSpec builds a ContainerSpec from a manifest service.
func (o *Orchestrator) buildContainerSpec(project string, svc stack.Service, networkName string, images, variables map[string]string) ContainerSpec {
	spec := ContainerSpec{
		Name:       stack.ContainerName(project, svc.Name),
		Image:      o.imageFor(svc, images),
		Command:    svc.Command,
		Entrypoint: svc.Entrypoint,
		Env:        make(map[string]string),
		Labels: map[string]string{
			LabelManaged: "true",
			LabelProject: project,
			LabelService: svc.Name,
		},
		Networks: []string{networkName},
	}

	for k, v := range svc.Environment {
		spec.Env[k] = stack.SubstituteVariables(v, variables)
	}

	for _, p := range svc.Ports {
		spec.Ports = append(spec.Ports, PortBinding{
			ContainerPort: int(p.Target),
			HostPort:      int(p.Published),
			Protocol:      p.Protocol,
			HostIP:        p.HostIP,
		})
	}

	for _, v := range svc.Volumes {
		m := VolumeMount{Target: v.Target, ReadOnly: v.ReadOnly}
		switch v.Type {
		case stack.VolumeMountTypeVolume:
			m.Type = MountTypeVolume
			m.Source = stack.VolumeName(project, v.Source)
		case stack.VolumeMountTypeTmpfs:
			m.Type = MountTypeTmpfs
		default:
			m.Type = MountTypeBind
			m.Source = v.Source
			// The engine rejects relative bind sources.
			if !filepath.IsAbs(m.Source) {
				if abs, err := filepath.Abs(m.Source); err == nil {
					m.Source = abs
				}
			}
		}
		spec.Volumes = append(spec.Volumes, m)
	}

	if svc.HealthCheck != nil {
		spec.HealthCheck = &HealthCheck{
			Test:    svc.HealthCheck.Test,
			Retries: svc.HealthCheck.Retries,
		}
		if svc.HealthCheck.Interval != "" {
			if d, err := time.ParseDuration(svc.HealthCheck.Interval); err == nil {
				spec.HealthCheck.Interval = d
			}
		}
		if svc.HealthCheck.Timeout != "" {
			if d, err := time.ParseDuration(svc.HealthCheck.Timeout); err == nil {
				spec.HealthCheck.Timeout = d
			}
		}
		if svc.HealthCheck.StartPeriod != "" {
			if d, err := time.ParseDuration(svc.HealthCheck.StartPeriod); err == nil {
				spec.HealthCheck.StartPeriod = d
			}
		}
	}

	if svc.Resources.CPULimit > 0 {
		spec.Resources.CPULimit = svc.Resources.CPULimit
	}
	if svc.Resources.MemoryLimit > 0 {
		spec.Resources.MemoryLimit = svc.Resources.MemoryLimit
	}

	switch svc.Restart {
	case stack.RestartAlways:
		spec.RestartPolicy = RestartPolicy{Name: "always"}
	case stack.RestartOnFailure:
		spec.RestartPolicy = RestartPolicy{Name: "on-failure"}
	case stack.RestartUnlessStopped:
		spec.RestartPolicy = RestartPolicy{Name: "unless-stopped"}
	default:
		spec.RestartPolicy = RestartPolicy{Name: "no"}
	}

	for k, v := range svc.Labels {
		spec.Labels[k] = v
	}

	return spec
}

// cleanupContainers stops and removes containers created during a failed Up.
func (o *Orchestrator) cleanupContainers(containers map[string]string) {
	timeout := 5 * time.Second
	for name, id := range containers {
		_ = o.docker.StopContainer(id, &timeout)
		_ = o.docker.RemoveContainer(id, RemoveOptions{Force: true})
		o.logger.Debug("cleaned up container", "service", name, "container_id", shortID(id))
	}
}

// shortID trims a container ID for logging.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

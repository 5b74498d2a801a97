package docker

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/build"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/jsonmessage"
)

// =============================================================================
// Image Build Operations
// =============================================================================

// BuildImage builds an image from a local context directory and applies the
// given tags. Build progress is streamed to output; a build error in the
// daemon's JSON stream fails the call.
func (d *EngineClient) BuildImage(ctx context.Context, spec BuildSpec, output io.Writer) error {
	if output == nil {
		output = io.Discard
	}

	dockerfile := spec.Dockerfile
	if dockerfile == "" {
		dockerfile = "Dockerfile"
	}

	tarStream, err := tarBuildContext(spec.ContextDir)
	if err != nil {
		return NewEngineError("BuildImage", "image", strings.Join(spec.Tags, ","), err.Error(), ErrBuildFailed)
	}
	defer tarStream.Close()

	buildArgs := make(map[string]*string, len(spec.BuildArgs))
	for k, v := range spec.BuildArgs {
		val := v
		buildArgs[k] = &val
	}

	resp, err := d.cli.ImageBuild(ctx, tarStream, build.ImageBuildOptions{
		Tags:       spec.Tags,
		Dockerfile: dockerfile,
		BuildArgs:  buildArgs,
		Remove:     true,
	})
	if err != nil {
		return NewEngineError("BuildImage", "image", strings.Join(spec.Tags, ","), err.Error(), ErrBuildFailed)
	}
	defer resp.Body.Close()

	if err := streamDaemonMessages(resp.Body, output); err != nil {
		return NewEngineError("BuildImage", "image", strings.Join(spec.Tags, ","), err.Error(), ErrBuildFailed)
	}

	return nil
}

// PushImage pushes a tagged image to its registry.
func (d *EngineClient) PushImage(ctx context.Context, ref string, creds Credentials, output io.Writer) error {
	if output == nil {
		output = io.Discard
	}

	encodedAuth, err := registry.EncodeAuthConfig(registry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: serverAddress(creds.Host),
	})
	if err != nil {
		return NewEngineError("PushImage", "image", ref, err.Error(), ErrPushFailed)
	}

	reader, err := d.cli.ImagePush(ctx, ref, image.PushOptions{
		RegistryAuth: encodedAuth,
	})
	if err != nil {
		return NewEngineError("PushImage", "image", ref, err.Error(), ErrPushFailed)
	}
	defer reader.Close()

	if err := streamDaemonMessages(reader, output); err != nil {
		return NewEngineError("PushImage", "image", ref, err.Error(), ErrPushFailed)
	}

	return nil
}

// =============================================================================
// Registry Operations
// =============================================================================

// Login verifies credentials against the registry via the daemon.
func (d *EngineClient) Login(ctx context.Context, creds Credentials) error {
	_, err := d.cli.RegistryLogin(ctx, registry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		ServerAddress: serverAddress(creds.Host),
	})
	if err != nil {
		return NewEngineError("Login", "registry", creds.Host, err.Error(), ErrLoginFailed)
	}
	return nil
}

// serverAddress maps a registry host to the address the daemon expects.
// Docker Hub uses the legacy index endpoint.
func serverAddress(host string) string {
	switch host {
	case "", "docker.io", "index.docker.io", "registry-1.docker.io":
		return "https://index.docker.io/v1/"
	}
	return host
}

// =============================================================================
// Helpers
// =============================================================================

// streamDaemonMessages copies the daemon's JSON message stream to output and
// returns the embedded error, if any.
func streamDaemonMessages(r io.Reader, output io.Writer) error {
	err := jsonmessage.DisplayJSONMessagesStream(r, output, 0, false, nil)
	if err != nil {
		if jsonErr, ok := err.(*jsonmessage.JSONError); ok {
			return fmt.Errorf("daemon error: %s", jsonErr.Message)
		}
		return err
	}
	return nil
}

// tarBuildContext packages a directory as a tar stream for the build API.
// Symlinks are stored as links; file modes are preserved.
func tarBuildContext(contextDir string) (io.ReadCloser, error) {
	absDir, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(absDir); err != nil {
		return nil, err
	} else if !info.IsDir() {
		return nil, fmt.Errorf("build context %s is not a directory", contextDir)
	}

	pr, pw := io.Pipe()

	go func() {
		tw := tar.NewWriter(pw)

		walkErr := filepath.Walk(absDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(absDir, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}

			var link string
			if info.Mode()&os.ModeSymlink != 0 {
				if link, err = os.Readlink(path); err != nil {
					return err
				}
			}

			hdr, err := tar.FileInfoHeader(info, link)
			if err != nil {
				return err
			}
			hdr.Name = filepath.ToSlash(rel)
			if info.IsDir() {
				hdr.Name += "/"
			}

			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(tw, f)
			return err
		})

		if walkErr != nil {
			pw.CloseWithError(walkErr)
			return
		}
		if err := tw.Close(); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	return pr, nil
}

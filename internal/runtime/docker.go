package runtime

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"scriptwrap/pkg/runtime"
)

// dockerAPI is the subset of the Docker client used by DockerRuntime.
type dockerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
}

// DockerRuntime implements the ContainerRuntime interface using Docker client.
type DockerRuntime struct {
	client    dockerAPI
	reachable bool
}

// NewDockerRuntime creates a new DockerRuntime instance using client.FromEnv.
// The daemon is contacted lazily, on the first build or run.
func NewDockerRuntime() (*DockerRuntime, error) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &DockerRuntime{
		client: dockerClient,
	}, nil
}

// Ping checks that the Docker daemon is reachable.
func (d *DockerRuntime) Ping(ctx context.Context) error {
	if d.reachable {
		return nil
	}
	if _, err := d.client.Ping(ctx); err != nil {
		return fmt.Errorf("failed to connect to Docker daemon: %w", err)
	}
	d.reachable = true
	return nil
}

// BuildImage builds opts.DockerfilePath against opts.ContextDir and tags the result.
// A build the daemon rejects or reports as failed yields a Result with a non-zero
// ExitCode; only client-side problems are returned as errors.
func (d *DockerRuntime) BuildImage(ctx context.Context, opts runtime.BuildOptions) (*runtime.Result, error) {
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	slog.Info("Building Docker image", "dockerfile", opts.DockerfilePath, "context", opts.ContextDir, "tag", opts.Tag)

	buildContext, dockerfile, err := createBuildContext(opts.ContextDir, opts.DockerfilePath)
	if err != nil {
		return nil, err
	}
	defer buildContext.Close()

	resp, err := d.client.ImageBuild(ctx, buildContext, types.ImageBuildOptions{
		Tags:        []string{opts.Tag},
		Dockerfile:  dockerfile,
		Labels:      opts.Labels,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Docker daemon rejected build", "tag", opts.Tag, "error", err)
		return &runtime.Result{ExitCode: 1, Stderr: err.Error() + "\n"}, nil
	}
	defer resp.Body.Close()

	result, err := decodeBuildOutput(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Info("Docker build finished", "tag", opts.Tag, "exitCode", result.ExitCode)
	return result, nil
}

// RunContainer runs a container to completion and returns its demultiplexed output.
func (d *DockerRuntime) RunContainer(ctx context.Context, opts runtime.RunOptions) (*runtime.Result, error) {
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	slog.Info("Running container", "image", opts.Image, "command", opts.Command)

	containerConfig := &container.Config{
		Image:        opts.Image,
		Cmd:          opts.Command,
		AttachStdout: true,
		AttachStderr: true,
	}

	resp, err := d.client.ContainerCreate(ctx, containerConfig, &container.HostConfig{}, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}

	containerID := resp.ID
	if opts.Remove {
		defer d.removeContainer(ctx, containerID)
	}

	// Registered before start so a fast exit is not missed.
	statusCh, errCh := d.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	if err := d.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	var exitCode int
	select {
	case err := <-errCh:
		if err != nil {
			return nil, fmt.Errorf("failed to wait for container: %w", err)
		}
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return nil, fmt.Errorf("container wait reported: %s", status.Error.Message)
		}
		exitCode = int(status.StatusCode)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	logs, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get container logs: %w", err)
	}
	defer logs.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, logs); err != nil {
		return nil, fmt.Errorf("failed to read container logs: %w", err)
	}

	slog.Info("Container exited", "image", opts.Image, "containerID", containerID, "exitCode", exitCode)

	return &runtime.Result{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// removeContainer force-removes a container, even when ctx was cancelled.
func (d *DockerRuntime) removeContainer(ctx context.Context, containerID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	if err := d.client.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Error("Failed to remove container", "containerID", containerID, "error", err)
	}
}

// createBuildContext tars contextDir, honouring its .dockerignore, and returns the
// Dockerfile name to use inside the archive. A Dockerfile outside contextDir is added
// to the archive under a unique name, as the docker CLI does.
func createBuildContext(contextDir, dockerfilePath string) (io.ReadCloser, string, error) {
	absContext, err := filepath.Abs(contextDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve build context: %w", err)
	}
	absDockerfile, err := filepath.Abs(dockerfilePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve Dockerfile path: %w", err)
	}

	excludes, err := readDockerignore(absContext)
	if err != nil {
		return nil, "", err
	}

	buildContext, err := archive.TarWithOptions(absContext, &archive.TarOptions{
		ExcludePatterns: excludes,
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to archive build context: %w", err)
	}

	rel, err := filepath.Rel(absContext, absDockerfile)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !isExcluded(rel, excludes) {
		return buildContext, filepath.ToSlash(rel), nil
	}

	content, err := os.ReadFile(absDockerfile)
	if err != nil {
		buildContext.Close()
		return nil, "", fmt.Errorf("failed to read Dockerfile: %w", err)
	}

	name := ".scriptwrap-dockerfile-" + uuid.NewString()
	wrapped := archive.ReplaceFileTarWrapper(buildContext, map[string]archive.TarModifierFunc{
		name: func(_ string, _ *tar.Header, _ io.Reader) (*tar.Header, []byte, error) {
			return &tar.Header{
				Name:     name,
				Mode:     0600,
				ModTime:  time.Now(),
				Typeflag: tar.TypeReg,
			}, content, nil
		},
	})
	return wrapped, name, nil
}

func readDockerignore(contextDir string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open .dockerignore: %w", err)
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse .dockerignore: %w", err)
	}
	return patterns, nil
}

// isExcluded reports whether the Dockerfile itself would be left out of the archive.
func isExcluded(rel string, excludes []string) bool {
	if len(excludes) == 0 {
		return false
	}
	pm, err := patternmatcher.New(excludes)
	if err != nil {
		return false
	}
	excluded, err := pm.MatchesOrParentMatches(filepath.ToSlash(rel))
	return err == nil && excluded
}

// decodeBuildOutput drains the daemon's JSON build stream. Stream text is collected as
// standard output and error messages as standard error.
func decodeBuildOutput(r io.Reader) (*runtime.Result, error) {
	var stdout, stderr strings.Builder
	result := &runtime.Result{}

	decoder := json.NewDecoder(r)
	for {
		var msg jsonmessage.JSONMessage
		if err := decoder.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode build output: %w", err)
		}

		switch {
		case msg.Error != nil:
			stderr.WriteString(strings.TrimRight(msg.Error.Message, "\n") + "\n")
			result.ExitCode = 1
		case msg.ErrorMessage != "":
			stderr.WriteString(strings.TrimRight(msg.ErrorMessage, "\n") + "\n")
			result.ExitCode = 1
		case msg.Stream != "":
			stdout.WriteString(msg.Stream)
		case msg.Status != "":
			if msg.ID != "" {
				stdout.WriteString(msg.ID + ": ")
			}
			stdout.WriteString(msg.Status + "\n")
		}
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result, nil
}

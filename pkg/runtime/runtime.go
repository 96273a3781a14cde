// Located in pkg/runtime/runtime.go
package runtime

import (
	"context"
)

// BuildOptions defines the parameters for building an image.
type BuildOptions struct {
	DockerfilePath string
	ContextDir     string
	Tag            string
	Labels         map[string]string
}

// RunOptions defines the parameters for running a container.
type RunOptions struct {
	Image   string
	Command []string
	// Remove deletes the container once it has exited, whatever its exit status.
	Remove bool
}

// Result is what a build or a container run produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Succeeded reports whether the process exited cleanly.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Log returns standard output followed by standard error.
func (r *Result) Log() string {
	return r.Stdout + r.Stderr
}

// ContainerRuntime defines the contract for container operations.
type ContainerRuntime interface {
	BuildImage(ctx context.Context, opts BuildOptions) (*Result, error)
	RunContainer(ctx context.Context, opts RunOptions) (*Result, error)
}

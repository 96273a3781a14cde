package container

import (
	"context"

	"scriptwrap/pkg/target"
)

// Builder turns a Dockerfile into a tagged image.
type Builder interface {
	// BuildImage builds artifactPath with the current working directory as build context.
	// A failed build is reported through BuildResult; errors mean the engine could not be used.
	BuildImage(ctx context.Context, artifactPath, tag string) (*target.BuildResult, error)
}

// Runner runs a tagged image with an argument string.
type Runner interface {
	// RunContainer runs tag with the shell-style split invocation and removes the container
	// once it exits.
	RunContainer(ctx context.Context, tag, invocation string) (*target.RunResult, error)
}

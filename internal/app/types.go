package app

import (
	"context"

	"scriptwrap/pkg/target"
)

// Stage represents a single stage in the wrap pipeline.
// Each stage implements this interface to provide a name and execution logic.
type Stage interface {
	Name() string
	Execute(ctx context.Context, state *ExecutionState) error
}

// ArtifactGenerator writes a Dockerfile for a script.
type ArtifactGenerator interface {
	Generate(ctx context.Context, scriptPath, readmePath, outputPath string) (string, error)
}

// SpecExtractor reads the expected invocation and output from a README.
type SpecExtractor interface {
	Extract(ctx context.Context, readmePath string) (*target.ExpectedSpec, error)
}

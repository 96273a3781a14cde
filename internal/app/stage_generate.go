package app

import (
	"context"
	"fmt"
	"log/slog"

	"scriptwrap/internal/ui"
)

// GenerateStage writes the Dockerfile for the resolved script target.
type GenerateStage struct {
	generator ArtifactGenerator
	console   *ui.Console
}

// NewGenerateStage creates a new generate stage instance
func NewGenerateStage(generator ArtifactGenerator, console *ui.Console) *GenerateStage {
	return &GenerateStage{generator: generator, console: console}
}

// Name returns the name of the stage
func (s *GenerateStage) Name() string {
	return string(StageGenerate)
}

// Execute generates the artifact once. Later regenerations belong to the build stage.
func (s *GenerateStage) Execute(ctx context.Context, state *ExecutionState) error {
	t := state.Target
	path, err := s.generator.Generate(ctx, t.ScriptPath, t.ReadmePath, t.ArtifactPath)
	if err != nil {
		return err
	}

	s.console.PrintInfo(fmt.Sprintf("📄 Dockerfile created: %s", path))
	slog.Info("Generate stage completed successfully", "artifact", path, "runId", state.RunID)
	return nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"scriptwrap/internal/container"
	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/ui"
)

// RunStage runs the built image with the extracted invocation.
type RunStage struct {
	runner  container.Runner
	console *ui.Console
}

// NewRunStage creates a new run stage instance
func NewRunStage(runner container.Runner, console *ui.Console) *RunStage {
	return &RunStage{runner: runner, console: console}
}

// Name returns the name of the stage
func (s *RunStage) Name() string {
	return string(StageRun)
}

// Execute runs the container and records its combined output.
func (s *RunStage) Execute(ctx context.Context, state *ExecutionState) error {
	invocation := state.Expected.ExampleInvocation
	s.console.PrintStage(fmt.Sprintf("▶️ Running container test: %s %s", state.ImageTag, invocation))

	result, err := s.runner.RunContainer(ctx, state.ImageTag, invocation)
	if err != nil {
		return swerrors.NewRuntimeError(
			fmt.Sprintf("Failed to run image %s", state.ImageTag),
			err.Error(),
			"Make sure the Docker daemon is running and the invocation is valid shell syntax",
			err,
		)
	}
	state.Run = result

	s.console.PrintLog("📦 Container output", result.Log)
	if !result.Succeeded {
		s.console.PrintFailure("❌ Container run failed.")
		return swerrors.NewRunError(
			fmt.Sprintf("Container %s exited with an error", state.ImageTag),
			"the script failed inside the container",
			"Check the container output above",
			nil,
		)
	}

	slog.Info("Run stage completed successfully", "tag", state.ImageTag, "runId", state.RunID)
	return nil
}

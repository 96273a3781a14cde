package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/ui"
)

// VerifyStage compares the container output with the README's expected output.
type VerifyStage struct {
	console *ui.Console
}

// NewVerifyStage creates a new verify stage instance
func NewVerifyStage(console *ui.Console) *VerifyStage {
	return &VerifyStage{console: console}
}

// Name returns the name of the stage
func (s *VerifyStage) Name() string {
	return string(StageVerify)
}

// Execute passes when the outputs are equal after trimming surrounding whitespace.
func (s *VerifyStage) Execute(ctx context.Context, state *ExecutionState) error {
	expected := strings.TrimSpace(state.Expected.ExpectedOutput)
	actual := strings.TrimSpace(state.Run.Log)

	if expected != actual {
		s.console.PrintFailure("❌ Test failed: output does not match expected output from README. Try to run the script again.")
		slog.Info("Output mismatch", "expected", expected, "actual", actual, "runId", state.RunID)
		return swerrors.NewVerificationError(
			"Container output does not match the README",
			fmt.Sprintf("expected %q, got %q", expected, actual),
			"Run scriptwrap again or make the README example deterministic",
			nil,
		)
	}

	s.console.PrintSuccess("✅ Test passed: output matches the expected result from README.")
	s.console.PrintSuccess("🚀 Your script is now containerized and can be run using the generated Dockerfile.")
	slog.Info("Verify stage completed successfully", "runId", state.RunID)
	return nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/ui"
)

// ExtractStage reads the example invocation and expected output from the README.
type ExtractStage struct {
	extractor SpecExtractor
	console   *ui.Console
}

// NewExtractStage creates a new extract stage instance
func NewExtractStage(extractor SpecExtractor, console *ui.Console) *ExtractStage {
	return &ExtractStage{extractor: extractor, console: console}
}

// Name returns the name of the stage
func (s *ExtractStage) Name() string {
	return string(StageExtract)
}

// Execute extracts the expected behaviour. Both fields must be non-empty to continue.
func (s *ExtractStage) Execute(ctx context.Context, state *ExecutionState) error {
	s.console.PrintStage("📖 Extracting example command and expected output from README...")

	expected, err := s.extractor.Extract(ctx, state.Target.ReadmePath)
	if err != nil {
		return err
	}
	state.Expected = expected

	var missing []string
	if strings.TrimSpace(expected.ExampleInvocation) == "" {
		missing = append(missing, "example command args")
	}
	if strings.TrimSpace(expected.ExpectedOutput) == "" {
		missing = append(missing, "expected output")
	}
	if len(missing) > 0 {
		s.console.PrintFailure("❌ Could not extract example command args or expected output from README.")
		return swerrors.NewExtractionError(
			fmt.Sprintf("README %s is incomplete", state.Target.ReadmePath),
			fmt.Sprintf("no %s found", strings.Join(missing, " or ")),
			"Add a usage example with its expected output to the README",
			fmt.Errorf("README extraction returned empty %s", strings.Join(missing, " and ")),
		)
	}

	slog.Info("Extract stage completed successfully", "readme", state.Target.ReadmePath, "runId", state.RunID)
	return nil
}

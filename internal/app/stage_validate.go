package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/input"
	"scriptwrap/internal/ui"
	"scriptwrap/pkg/target"
)

// ValidateStage screens the script path and derives the files the run works on.
type ValidateStage struct {
	console *ui.Console
}

// NewValidateStage creates a new validate stage instance
func NewValidateStage(console *ui.Console) *ValidateStage {
	return &ValidateStage{console: console}
}

// Name returns the name of the stage
func (s *ValidateStage) Name() string {
	return string(StageValidate)
}

// Execute sanitizes the script path and rejects it when it carries a prompt injection,
// does not name an existing file, or cannot be turned into an image tag.
func (s *ValidateStage) Execute(ctx context.Context, state *ExecutionState) error {
	scriptPath := input.Sanitize(state.ScriptPath)
	if scriptPath != state.ScriptPath {
		slog.Warn("Removed shell metacharacters from script path", "original", state.ScriptPath, "sanitized", scriptPath)
	}

	if trigger, found := input.DetectInjection(scriptPath); found {
		s.console.PrintFailure("❌ Potential prompt injection detected. Aborting.")
		return swerrors.NewInputError(
			"Script path rejected",
			fmt.Sprintf("the path contains the phrase %q", trigger),
			"Rename the script or its directory",
			fmt.Errorf("prompt injection detected in script path"),
		)
	}

	info, err := os.Stat(scriptPath)
	if err != nil {
		s.console.PrintFailure(fmt.Sprintf("❌ Script not found: %s", scriptPath))
		return swerrors.NewInputError(
			fmt.Sprintf("Cannot read script %s", scriptPath),
			err.Error(),
			"Pass the path of an existing script with --script",
			fmt.Errorf("script not found: %w", err),
		)
	}
	if info.IsDir() {
		s.console.PrintFailure(fmt.Sprintf("❌ Script path is a directory: %s", scriptPath))
		return swerrors.NewInputError(
			fmt.Sprintf("Cannot wrap %s", scriptPath),
			"the path is a directory",
			"Pass the path of the script file itself",
			nil,
		)
	}

	scriptTarget, err := target.NewScriptTarget(scriptPath)
	if err != nil {
		return swerrors.NewInputError("Cannot derive file names from the script path", err.Error(), "Move the script into a named directory", err)
	}
	tag, err := scriptTarget.ImageTag()
	if err != nil {
		return swerrors.NewInputError("Cannot derive an image tag from the script directory", err.Error(), "Rename the script directory using letters, digits, '.', '_' or '-'", err)
	}

	state.Target = scriptTarget
	state.ImageTag = tag

	slog.Info("Script target resolved", "script", scriptTarget.ScriptPath, "readme", scriptTarget.ReadmePath,
		"artifact", scriptTarget.ArtifactPath, "tag", tag)
	return nil
}

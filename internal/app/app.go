package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"scriptwrap/internal/config"
	"scriptwrap/internal/container"
	"scriptwrap/internal/ui"
)

// Dependencies are the collaborators a Pipeline drives.
type Dependencies struct {
	Generator   ArtifactGenerator
	Builder     container.Builder
	Extractor   SpecExtractor
	Runner      container.Runner
	Console     *ui.Console
	MaxAttempts int
	Backoff     time.Duration
}

// Pipeline runs the wrap stages in order and stops at the first one that fails.
type Pipeline struct {
	stages  []Stage
	console *ui.Console
}

// NewPipeline wires the validate, generate, build, extract, run and verify stages.
func NewPipeline(deps Dependencies) *Pipeline {
	console := deps.Console
	if console == nil {
		console = ui.NewConsole()
	}

	return &Pipeline{
		stages: []Stage{
			NewValidateStage(console),
			NewGenerateStage(deps.Generator, console),
			NewBuildStage(deps.Generator, deps.Builder, console, deps.MaxAttempts, deps.Backoff),
			NewExtractStage(deps.Extractor, console),
			NewRunStage(deps.Runner, console),
			NewVerifyStage(console),
		},
		console: console,
	}
}

// Run wraps the script at scriptPath and returns the verdict.
func (p *Pipeline) Run(ctx context.Context, scriptPath string) *Outcome {
	state := newState(scriptPath, uuid.New().String())
	slog.Info("Starting scriptwrap run", "runId", state.RunID, "script", scriptPath)

	for _, stage := range p.stages {
		slog.Debug("Executing stage", "stage", stage.Name(), "runId", state.RunID)

		if err := stage.Execute(ctx, state); err != nil {
			verdict := verdictFor(err)
			if verdict == VerdictError {
				p.console.PrintFailure(fmt.Sprintf("❌ %s stage failed.", stage.Name()))
			}
			slog.Warn("Stage ended the run", "stage", stage.Name(), "verdict", verdict, "error", err, "runId", state.RunID)
			return &Outcome{
				Verdict: verdict,
				Stage:   ExecutionStage(stage.Name()),
				State:   state,
				Err:     err,
			}
		}

		state.complete(ExecutionStage(stage.Name()))
	}

	state.complete(StageCompleted)
	slog.Info("scriptwrap run passed", "runId", state.RunID, "tag", state.ImageTag, "buildAttempts", state.BuildAttempts)
	return &Outcome{Verdict: VerdictPassed, State: state}
}

// Wrap resolves the collaborators from cfg and runs the pipeline for scriptPath.
// Configuration problems are reported as an ABORTED outcome before any stage runs.
func Wrap(ctx context.Context, scriptPath string, cfg *config.Config, console *ui.Console) *Outcome {
	deps, err := NewProviderFactory().Dependencies(cfg, console)
	if err != nil {
		return &Outcome{Verdict: verdictFor(err), Err: err}
	}
	return NewPipeline(*deps).Run(ctx, scriptPath)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"

	"scriptwrap/internal/container"
	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/ui"
	"scriptwrap/pkg/target"
)

var errBuildAttemptFailed = errors.New("build attempt failed")

// BuildStage builds the image, regenerating the Dockerfile between failed attempts.
type BuildStage struct {
	generator   ArtifactGenerator
	builder     container.Builder
	console     *ui.Console
	maxAttempts int
	backoff     time.Duration
}

// NewBuildStage creates a new build stage instance. maxAttempts below one is treated as one.
func NewBuildStage(generator ArtifactGenerator, builder container.Builder, console *ui.Console, maxAttempts int, delay time.Duration) *BuildStage {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &BuildStage{
		generator:   generator,
		builder:     builder,
		console:     console,
		maxAttempts: maxAttempts,
		backoff:     delay,
	}
}

// Name returns the name of the stage
func (s *BuildStage) Name() string {
	return string(StageBuild)
}

// Execute builds the image up to maxAttempts times. The first attempt uses the artifact the
// generate stage wrote; each later attempt regenerates it first. Generator and engine errors
// end the loop immediately.
func (s *BuildStage) Execute(ctx context.Context, state *ExecutionState) error {
	t := state.Target
	var fatal error

	operation := func() (*target.BuildResult, error) {
		state.BuildAttempts++
		attempt := state.BuildAttempts

		if attempt > 1 {
			s.console.PrintStage(fmt.Sprintf("♻️ Regenerating Dockerfile (attempt %d of %d)", attempt, s.maxAttempts))
			if _, err := s.generator.Generate(ctx, t.ScriptPath, t.ReadmePath, t.ArtifactPath); err != nil {
				fatal = err
				return nil, backoff.Permanent(err)
			}
		}

		s.console.PrintStage(fmt.Sprintf("🔨 Building Docker image: %s", state.ImageTag))
		result, err := s.builder.BuildImage(ctx, t.ArtifactPath, state.ImageTag)
		if err != nil {
			fatal = swerrors.NewRuntimeError(
				fmt.Sprintf("Failed to build image %s", state.ImageTag),
				err.Error(),
				"Make sure the Docker daemon is running and reachable",
				err,
			)
			return nil, backoff.Permanent(fatal)
		}

		state.Build = result
		if !result.Succeeded {
			slog.Warn("Image build failed", "tag", state.ImageTag, "attempt", attempt, "maxAttempts", s.maxAttempts)
			return result, errBuildAttemptFailed
		}
		return result, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.backoff)),
		backoff.WithMaxTries(uint(s.maxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Info("Retrying image build", "tag", state.ImageTag, "in", next)
		}),
	)
	if fatal != nil {
		return fatal
	}
	if state.Build != nil {
		s.console.PrintLog("🛠️ Build log", state.Build.Log)
	}
	if err != nil && !errors.Is(err, errBuildAttemptFailed) {
		return err
	}
	if err != nil {
		s.console.PrintFailure("❌ Docker build failed.")
		return swerrors.NewBuildError(
			fmt.Sprintf("Image %s did not build after %d attempt(s)", state.ImageTag, state.BuildAttempts),
			"the generated Dockerfile is not buildable",
			fmt.Sprintf("Inspect %s and the build log above", t.ArtifactPath),
			nil,
		)
	}

	slog.Info("Build stage completed successfully", "tag", state.ImageTag, "attempts", state.BuildAttempts, "runId", state.RunID)
	return nil
}

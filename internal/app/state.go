package app

import (
	"time"

	"scriptwrap/pkg/target"
)

// ExecutionStage names a pipeline stage
type ExecutionStage string

const (
	StageValidate  ExecutionStage = "validate"
	StageGenerate  ExecutionStage = "generate"
	StageBuild     ExecutionStage = "build"
	StageExtract   ExecutionStage = "extract"
	StageRun       ExecutionStage = "run"
	StageVerify    ExecutionStage = "verify"
	StageCompleted ExecutionStage = "completed"
)

// ExecutionState is everything one wrap run has learned so far. It lives only in memory.
type ExecutionState struct {
	RunID               string
	LastSuccessfulStage ExecutionStage
	// ScriptPath is the path as the user supplied it, before sanitizing.
	ScriptPath    string
	Target        *target.ScriptTarget
	ImageTag      string
	BuildAttempts int
	Build         *target.BuildResult
	Expected      *target.ExpectedSpec
	Run           *target.RunResult
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// newState creates a new execution state for a fresh run
func newState(scriptPath, runID string) *ExecutionState {
	now := time.Now()
	return &ExecutionState{
		RunID:         runID,
		ScriptPath:    scriptPath,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
}

// complete records stage as the last one that finished without error.
func (s *ExecutionState) complete(stage ExecutionStage) {
	s.LastSuccessfulStage = stage
	s.LastUpdatedAt = time.Now()
}

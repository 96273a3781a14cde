package app

import (
	"errors"

	swerrors "scriptwrap/internal/errors"
)

// Verdict is the final classification of a wrap run.
type Verdict string

const (
	VerdictPassed  Verdict = "PASSED"
	VerdictFailed  Verdict = "FAILED"
	VerdictAborted Verdict = "ABORTED"
	VerdictError   Verdict = "ERROR"
)

// Process exit codes per verdict.
const (
	ExitPassed  = 0
	ExitFailed  = 1
	ExitAborted = 2
	ExitError   = 3
)

// ExitCode maps the verdict to the process exit status.
func (v Verdict) ExitCode() int {
	switch v {
	case VerdictPassed:
		return ExitPassed
	case VerdictFailed:
		return ExitFailed
	case VerdictAborted:
		return ExitAborted
	default:
		return ExitError
	}
}

// Outcome is the result of a wrap run.
type Outcome struct {
	Verdict Verdict
	// Stage is the stage that ended the run; empty when the run passed or never started.
	Stage ExecutionStage
	State *ExecutionState
	Err   error
}

// ExitCode returns the process exit status for the outcome.
func (o *Outcome) ExitCode() int {
	return o.Verdict.ExitCode()
}

// verdictFor classifies a stage error. Errors of an unknown kind are collaborator failures.
func verdictFor(err error) Verdict {
	switch {
	case err == nil:
		return VerdictPassed
	case errors.Is(err, swerrors.ErrInputRejected), errors.Is(err, swerrors.ErrConfigInvalid):
		return VerdictAborted
	case errors.Is(err, swerrors.ErrBuildFailed),
		errors.Is(err, swerrors.ErrExtractionIncomplete),
		errors.Is(err, swerrors.ErrRunFailed),
		errors.Is(err, swerrors.ErrVerificationMismatch):
		return VerdictFailed
	default:
		return VerdictError
	}
}

package errors

import "errors"

var (
	ErrInputRejected        = errors.New("input rejected")
	ErrConfigInvalid        = errors.New("configuration invalid")
	ErrCompletionFailed     = errors.New("completion request failed")
	ErrFileSystemFailed     = errors.New("filesystem operation failed")
	ErrRuntimeFailed        = errors.New("container runtime operation failed")
	ErrBuildFailed          = errors.New("image build failed")
	ErrExtractionIncomplete = errors.New("README extraction incomplete")
	ErrRunFailed            = errors.New("container run failed")
	ErrVerificationMismatch = errors.New("output verification mismatch")
)

type ScriptWrapError struct {
	Type        error
	Context     string
	Cause       string
	Suggestion  string
	OriginalErr error
}

func (e *ScriptWrapError) Error() string {
	if e.OriginalErr == nil {
		return e.Type.Error()
	}
	return e.OriginalErr.Error()
}

func (e *ScriptWrapError) Unwrap() error {
	return e.OriginalErr
}

// Is lets errors.Is match a ScriptWrapError against its kind.
func (e *ScriptWrapError) Is(target error) bool {
	return e.Type == target
}

func NewScriptWrapError(errorType error, context, cause, suggestion string, originalErr error) *ScriptWrapError {
	if originalErr == nil {
		originalErr = errorType
	}
	return &ScriptWrapError{
		Type:        errorType,
		Context:     context,
		Cause:       cause,
		Suggestion:  suggestion,
		OriginalErr: originalErr,
	}
}

func NewInputError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrInputRejected, context, cause, suggestion, originalErr)
}

func NewConfigError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrConfigInvalid, context, cause, suggestion, originalErr)
}

func NewCompletionError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrCompletionFailed, context, cause, suggestion, originalErr)
}

func NewFileSystemError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrFileSystemFailed, context, cause, suggestion, originalErr)
}

func NewRuntimeError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrRuntimeFailed, context, cause, suggestion, originalErr)
}

func NewBuildError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrBuildFailed, context, cause, suggestion, originalErr)
}

func NewExtractionError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrExtractionIncomplete, context, cause, suggestion, originalErr)
}

func NewRunError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrRunFailed, context, cause, suggestion, originalErr)
}

func NewVerificationError(context, cause, suggestion string, originalErr error) *ScriptWrapError {
	return NewScriptWrapError(ErrVerificationMismatch, context, cause, suggestion, originalErr)
}

package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"scriptwrap/internal/ui"
)

const logFileName = "scriptwrap.log"

type ErrorHandler struct {
	logger  *slog.Logger
	console *ui.Console
}

func NewErrorHandler() (*ErrorHandler, error) {
	logFile, err := OpenLogFile()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return &ErrorHandler{
		logger:  logger,
		console: ui.NewConsole(),
	}, nil
}

// NewFileLogger returns a JSON logger writing to the rotated scriptwrap log file.
// The returned file must be closed by the caller.
func NewFileLogger(level slog.Leveler) (*slog.Logger, *os.File, error) {
	logFile, err := OpenLogFile()
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level: level,
	}))
	return logger, logFile, nil
}

// getOSStandardLogDir returns the OS-standard log directory path
func getOSStandardLogDir() (string, error) {
	if customLogDir := os.Getenv("SCRIPTWRAP_LOG_DIR"); customLogDir != "" {
		return customLogDir, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		// ~/Library/Logs/ScriptWrap/
		return filepath.Join(homeDir, "Library", "Logs", "ScriptWrap"), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		// XDG data dir
		return filepath.Join(homeDir, ".local", "share", "scriptwrap", "logs"), nil
	case "windows":
		appDataDir := os.Getenv("APPDATA")
		if appDataDir == "" {
			return filepath.Join(homeDir, "AppData", "Roaming", "ScriptWrap", "logs"), nil
		}
		return filepath.Join(appDataDir, "ScriptWrap", "logs"), nil
	default:
		return filepath.Join(homeDir, ".scriptwrap", "logs"), nil
	}
}

// createLogDirectoryWithFallback creates the log directory with fallback to current directory
func createLogDirectoryWithFallback() (string, bool, error) {
	var warnings []string

	logDir, err := getOSStandardLogDir()
	if err == nil {
		if err = os.MkdirAll(logDir, 0750); err == nil {
			testFile := filepath.Join(logDir, ".test_write")
			f, testErr := os.Create(testFile)
			if testErr == nil {
				if err := f.Close(); err != nil {
					slog.Warn("Failed to close test file", "path", testFile, "error", err)
				}
				if err := os.Remove(testFile); err != nil {
					slog.Warn("Failed to remove test file", "path", testFile, "error", err)
				}
				return logDir, false, nil
			}
			err = testErr
		}
		warnings = append(warnings, fmt.Sprintf("Cannot access standard log directory %s: %v", logDir, err))
	} else {
		warnings = append(warnings, fmt.Sprintf("Cannot determine standard log directory: %v", err))
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return "", true, fmt.Errorf("cannot determine current directory for fallback logging: %w", err)
	}

	if len(warnings) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %s. Falling back to current directory for logging.\n", warnings[0])
	}

	return currentDir, true, nil
}

// rotateLogFile rotates log files when size limit is exceeded
func rotateLogFile(logPath string) error {
	const maxFiles = 5

	// .4 -> .5, .3 -> .4, ...
	for i := maxFiles - 1; i > 0; i-- {
		oldPath := fmt.Sprintf("%s.%d", logPath, i)
		newPath := fmt.Sprintf("%s.%d", logPath, i+1)

		if _, err := os.Stat(oldPath); err != nil {
			continue
		}
		if i == maxFiles-1 {
			if err := os.Remove(oldPath); err != nil {
				slog.Warn("Failed to remove old log file", "path", oldPath, "error", err)
			}
			continue
		}
		if err := os.Rename(oldPath, newPath); err != nil {
			slog.Warn("Failed to rotate log file", "old", oldPath, "new", newPath, "error", err)
		}
	}

	if _, err := os.Stat(logPath); err == nil {
		return os.Rename(logPath, logPath+".1")
	}

	return nil
}

// checkLogRotation checks if log rotation is needed and performs it
func checkLogRotation(logPath string) error {
	const maxSizeBytes = 10 * 1024 * 1024 // 10MB

	info, err := os.Stat(logPath)
	if err != nil {
		return nil
	}

	if info.Size() >= maxSizeBytes {
		return rotateLogFile(logPath)
	}

	return nil
}

// OpenLogFile opens the scriptwrap log file for appending, rotating it first if it grew too large.
func OpenLogFile() (*os.File, error) {
	logDir, _, err := createLogDirectoryWithFallback()
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(logDir, logFileName)

	if err := checkLogRotation(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to rotate log file: %v\n", err)
	}

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
}

func (h *ErrorHandler) Handle(err error) {
	if err == nil {
		return
	}

	var wrapErr *ScriptWrapError
	if errors.As(err, &wrapErr) {
		h.handleScriptWrapError(wrapErr)
	} else {
		h.handleGenericError(err)
	}
}

func (h *ErrorHandler) handleScriptWrapError(err *ScriptWrapError) {
	h.logStructuredError(err)

	message := h.console.FormatErrorMessage(err.Context, err.Cause, err.Suggestion)
	h.console.PrintError(message)
}

func (h *ErrorHandler) handleGenericError(err error) {
	h.logger.Error("Unhandled error occurred",
		"error", err.Error(),
		"type", "generic",
	)

	h.console.PrintError(err.Error())
}

func (h *ErrorHandler) logStructuredError(err *ScriptWrapError) {
	logAttrs := []slog.Attr{
		slog.String("error", err.Error()),
		slog.String("type", TypeName(err.Type)),
		slog.String("context", err.Context),
	}

	if err.Cause != "" {
		logAttrs = append(logAttrs, slog.String("cause", err.Cause))
	}

	if err.Suggestion != "" {
		logAttrs = append(logAttrs, slog.String("suggestion", err.Suggestion))
	}

	h.logger.LogAttrs(context.TODO(), slog.LevelError, "ScriptWrap error occurred", logAttrs...)
}

// TypeName returns the stable identifier used for an error kind in logs.
func TypeName(errType error) string {
	switch errType {
	case ErrInputRejected:
		return "input_rejected"
	case ErrConfigInvalid:
		return "config_invalid"
	case ErrCompletionFailed:
		return "completion_failed"
	case ErrFileSystemFailed:
		return "filesystem_failed"
	case ErrRuntimeFailed:
		return "runtime_failed"
	case ErrBuildFailed:
		return "build_failed"
	case ErrExtractionIncomplete:
		return "extraction_incomplete"
	case ErrRunFailed:
		return "run_failed"
	case ErrVerificationMismatch:
		return "verification_mismatch"
	default:
		return "unknown"
	}
}

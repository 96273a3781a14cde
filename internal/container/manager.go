package container

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/shlex"

	"scriptwrap/internal/scm"
	"scriptwrap/pkg/runtime"
	"scriptwrap/pkg/target"
)

const (
	// RevisionLabel carries the git revision of the script directory.
	RevisionLabel = "org.opencontainers.image.revision"

	// ArtifactLabel carries the file name of the Dockerfile the image was built from.
	ArtifactLabel = "io.scriptwrap.artifact"
)

// Manager builds and runs script images through a container runtime.
type Manager struct {
	containerRuntime runtime.ContainerRuntime
	revisions        scm.RevisionSource
}

// NewManager creates a new Manager. revisions may be nil, in which case images carry no
// revision label.
func NewManager(containerRuntime runtime.ContainerRuntime, revisions scm.RevisionSource) *Manager {
	return &Manager{
		containerRuntime: containerRuntime,
		revisions:        revisions,
	}
}

// BuildImage builds the image for artifactPath using the current working directory as context.
func (m *Manager) BuildImage(ctx context.Context, artifactPath, tag string) (*target.BuildResult, error) {
	contextDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine build context: %w", err)
	}

	opts := runtime.BuildOptions{
		DockerfilePath: artifactPath,
		ContextDir:     contextDir,
		Tag:            tag,
		Labels:         m.labels(artifactPath),
	}

	result, err := m.containerRuntime.BuildImage(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build image %s: %w", tag, err)
	}

	logOutput("Build output", result.Log())

	return &target.BuildResult{
		Succeeded: result.Succeeded(),
		Log:       result.Log(),
	}, nil
}

// RunContainer runs tag with invocation split into arguments using shell quoting rules.
func (m *Manager) RunContainer(ctx context.Context, tag, invocation string) (*target.RunResult, error) {
	args, err := SplitInvocation(invocation)
	if err != nil {
		return nil, err
	}

	result, err := m.containerRuntime.RunContainer(ctx, runtime.RunOptions{
		Image:   tag,
		Command: args,
		Remove:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run container %s: %w", tag, err)
	}

	logOutput("Container output", result.Log())

	return &target.RunResult{
		Succeeded: result.Succeeded(),
		Log:       result.Log(),
	}, nil
}

// SplitInvocation splits an argument string the way a POSIX shell would, without expansion.
// An empty or blank invocation yields no arguments.
func SplitInvocation(invocation string) ([]string, error) {
	if strings.TrimSpace(invocation) == "" {
		return nil, nil
	}
	args, err := shlex.Split(invocation)
	if err != nil {
		return nil, fmt.Errorf("failed to split invocation %q: %w", invocation, err)
	}
	return args, nil
}

func (m *Manager) labels(artifactPath string) map[string]string {
	labels := map[string]string{
		ArtifactLabel: filepath.Base(artifactPath),
	}
	if m.revisions == nil {
		return labels
	}

	rev, err := m.revisions.HeadRevision(filepath.Dir(artifactPath))
	if err != nil {
		slog.Warn("Could not determine source revision", "artifact", artifactPath, "error", err)
		return labels
	}
	if rev != "" {
		labels[RevisionLabel] = rev
	}
	return labels
}

// ansiRegex is a compiled regex for ANSI escape sequences
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// logOutput writes each printable line of output to the debug log.
func logOutput(msg, output string) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := cleanLogLine(scanner.Text()); line != "" {
			slog.Debug(msg, "line", line)
		}
	}
}

// cleanLogLine removes ANSI escape sequences and control characters, and drops lines that
// are mostly binary.
func cleanLogLine(line string) string {
	line = ansiRegex.ReplaceAllString(line, "")
	line = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, line)
	line = strings.TrimSpace(line)
	if line == "" {
		return ""
	}

	printable := 0
	for _, r := range line {
		if r >= 32 && r <= 126 {
			printable++
		}
	}
	if float64(printable)/float64(len([]rune(line))) < 0.5 {
		return ""
	}

	return line
}

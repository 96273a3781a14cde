package target

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/distribution/reference"
)

// ScriptTarget is the set of files a single wrap run works on.
// All paths live in the script's parent directory.
type ScriptTarget struct {
	ScriptPath   string `json:"script_path" validate:"required"`
	ReadmePath   string `json:"readme_path" validate:"required"`
	ArtifactPath string `json:"artifact_path" validate:"required"`
	// Name is the base name of the script's parent directory.
	Name string `json:"name" validate:"required"`
}

// NewScriptTarget derives the README and Dockerfile locations from a script path.
// The README is expected at <dir>/README_<name>.md and the Dockerfile is written to
// <dir>/Dockerfile_<name>.Dockerfile, where <name> is the directory's base name.
func NewScriptTarget(scriptPath string) (*ScriptTarget, error) {
	if strings.TrimSpace(scriptPath) == "" {
		return nil, fmt.Errorf("script path cannot be empty")
	}

	dir := filepath.Dir(scriptPath)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve script directory: %w", err)
	}
	name := filepath.Base(absDir)
	if name == string(filepath.Separator) || name == "." {
		return nil, fmt.Errorf("cannot derive a name from script directory: %s", absDir)
	}

	return &ScriptTarget{
		ScriptPath:   scriptPath,
		ReadmePath:   filepath.Join(dir, "README_"+name+".md"),
		ArtifactPath: filepath.Join(dir, "Dockerfile_"+name+".Dockerfile"),
		Name:         name,
	}, nil
}

// ImageTag returns the image reference the target is built and run under.
// Docker references must be lowercase, so the directory name is normalized.
func (t *ScriptTarget) ImageTag() (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(t.Name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	tag := strings.Trim(b.String(), ".-_")
	if tag == "" {
		return "", fmt.Errorf("directory name %q does not produce a usable image tag", t.Name)
	}

	if _, err := reference.ParseNormalizedNamed(tag); err != nil {
		return "", fmt.Errorf("invalid image tag %q: %w", tag, err)
	}
	return tag, nil
}

// ExpectedSpec is what the README says the wrapped script should do.
// Either field may legitimately be empty after extraction.
type ExpectedSpec struct {
	ExampleInvocation string `json:"example_command_args"`
	ExpectedOutput    string `json:"expected_output"`
}

// BuildResult is the outcome of one image build attempt.
// Log holds standard output followed by standard error.
type BuildResult struct {
	Succeeded bool
	Log       string
}

// RunResult is the outcome of one container execution.
type RunResult struct {
	Succeeded bool
	Log       string
}

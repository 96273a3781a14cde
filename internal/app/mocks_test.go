package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scriptwrap/internal/ui"
	"scriptwrap/pkg/target"
)

// MockGenerator is a mock implementation of the ArtifactGenerator interface
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, scriptPath, readmePath, outputPath string) (string, error) {
	args := m.Called(ctx, scriptPath, readmePath, outputPath)
	return args.String(0), args.Error(1)
}

// MockBuilder is a mock implementation of the container.Builder interface
type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) BuildImage(ctx context.Context, artifactPath, tag string) (*target.BuildResult, error) {
	args := m.Called(ctx, artifactPath, tag)
	result, _ := args.Get(0).(*target.BuildResult)
	return result, args.Error(1)
}

// MockExtractor is a mock implementation of the SpecExtractor interface
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, readmePath string) (*target.ExpectedSpec, error) {
	args := m.Called(ctx, readmePath)
	spec, _ := args.Get(0).(*target.ExpectedSpec)
	return spec, args.Error(1)
}

// MockRunner is a mock implementation of the container.Runner interface
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunContainer(ctx context.Context, tag, invocation string) (*target.RunResult, error) {
	args := m.Called(ctx, tag, invocation)
	result, _ := args.Get(0).(*target.RunResult)
	return result, args.Error(1)
}

// fixture holds the collaborators and files of one pipeline test.
type fixture struct {
	dir       string
	script    string
	readme    string
	artifact  string
	generator *MockGenerator
	builder   *MockBuilder
	extractor *MockExtractor
	runner    *MockRunner
	output    *bytes.Buffer
}

// newFixture creates <tmp>/hello/hello.py and fresh mocks.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "hello")
	require.NoError(t, os.MkdirAll(dir, 0750))
	script := filepath.Join(dir, "hello.py")
	require.NoError(t, os.WriteFile(script, []byte("import sys\nprint(f'Hello, {sys.argv[2]}!')\n"), 0644))

	return &fixture{
		dir:       dir,
		script:    script,
		readme:    filepath.Join(dir, "README_hello.md"),
		artifact:  filepath.Join(dir, "Dockerfile_hello.Dockerfile"),
		generator: &MockGenerator{},
		builder:   &MockBuilder{},
		extractor: &MockExtractor{},
		runner:    &MockRunner{},
		output:    &bytes.Buffer{},
	}
}

func (f *fixture) pipeline(maxAttempts int) *Pipeline {
	return NewPipeline(Dependencies{
		Generator:   f.generator,
		Builder:     f.builder,
		Extractor:   f.extractor,
		Runner:      f.runner,
		Console:     ui.NewConsoleWithWriters(f.output, f.output),
		MaxAttempts: maxAttempts,
	})
}

func (f *fixture) expectGenerate(times int) {
	f.generator.On("Generate", mock.Anything, f.script, f.readme, f.artifact).Return(f.artifact, nil).Times(times)
}

func (f *fixture) expectBuild(results ...*target.BuildResult) {
	for _, r := range results {
		f.builder.On("BuildImage", mock.Anything, f.artifact, "hello").Return(r, nil).Once()
	}
}

func (f *fixture) expectExtract(invocation, output string) {
	f.extractor.On("Extract", mock.Anything, f.readme).Return(&target.ExpectedSpec{
		ExampleInvocation: invocation,
		ExpectedOutput:    output,
	}, nil).Once()
}

func (f *fixture) expectRun(invocation string, result *target.RunResult) {
	f.runner.On("RunContainer", mock.Anything, "hello", invocation).Return(result, nil).Once()
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.generator.AssertExpectations(t)
	f.builder.AssertExpectations(t)
	f.extractor.AssertExpectations(t)
	f.runner.AssertExpectations(t)
}

var (
	buildOK     = &target.BuildResult{Succeeded: true, Log: "Successfully tagged hello:latest\n"}
	buildBroken = &target.BuildResult{Succeeded: false, Log: "COPY failed: file not found\n"}
)

package app

import (
	"errors"
	"fmt"

	"scriptwrap/internal/config"
	"scriptwrap/internal/container"
	swerrors "scriptwrap/internal/errors"
	"scriptwrap/internal/extractor"
	"scriptwrap/internal/generator"
	"scriptwrap/internal/llm"
	"scriptwrap/internal/runtime"
	"scriptwrap/internal/scm"
	"scriptwrap/internal/ui"
	pkgllm "scriptwrap/pkg/llm"
)

// ProviderFactory builds the pipeline's collaborators from configuration.
type ProviderFactory struct{}

// NewProviderFactory creates a new instance of ProviderFactory.
func NewProviderFactory() *ProviderFactory {
	return &ProviderFactory{}
}

// GetLLMClient resolves the configured language-model provider.
func (f *ProviderFactory) GetLLMClient(cfg config.LLMConfig) (pkgllm.Client, error) {
	client, err := llm.Resolve(cfg.Provider, cfg.ProviderConfig())
	if err != nil {
		var unsupported *llm.UnsupportedProviderError
		if errors.As(err, &unsupported) {
			return nil, swerrors.NewConfigError(
				fmt.Sprintf("Unknown LLM provider '%s'", cfg.Provider),
				err.Error(),
				"Run 'scriptwrap providers' to list the supported providers",
				err,
			)
		}
		return nil, swerrors.NewConfigError(
			fmt.Sprintf("Cannot use LLM provider '%s'", cfg.Provider),
			err.Error(),
			"Check the API key and base URL configured for the provider",
			err,
		)
	}
	return client, nil
}

// GetContainerManager returns a container manager backed by the local Docker engine.
func (f *ProviderFactory) GetContainerManager() (*container.Manager, error) {
	dockerRuntime, err := runtime.NewDockerRuntime()
	if err != nil {
		return nil, swerrors.NewRuntimeError(
			"Failed to create Docker client",
			err.Error(),
			"Check DOCKER_HOST and related environment variables",
			err,
		)
	}
	return container.NewManager(dockerRuntime, scm.NewGitRevisionSource()), nil
}

// Dependencies assembles everything a Pipeline needs.
func (f *ProviderFactory) Dependencies(cfg *config.Config, console *ui.Console) (*Dependencies, error) {
	client, err := f.GetLLMClient(cfg.LLM)
	if err != nil {
		return nil, err
	}

	manager, err := f.GetContainerManager()
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Generator:   generator.NewGenerator(client),
		Builder:     manager,
		Extractor:   extractor.NewExtractor(client),
		Runner:      manager,
		Console:     console,
		MaxAttempts: cfg.Build.MaxAttempts,
		Backoff:     cfg.Build.Backoff,
	}, nil
}

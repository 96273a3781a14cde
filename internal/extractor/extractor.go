package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/pkg/llm"
	"scriptwrap/pkg/target"
)

// SystemPrompt frames the model as a structured-data extractor.
const SystemPrompt = "You are a helpful assistant that extracts structured data from documentation."

// Extractor pulls the example invocation and its expected output out of a README.
type Extractor struct {
	client llm.Client
}

// NewExtractor creates a new Extractor.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{client: client}
}

// Extract reads readmePath and asks the model for the first example's arguments and output.
// Empty fields are returned as-is; deciding whether they are usable is up to the caller.
func (e *Extractor) Extract(ctx context.Context, readmePath string) (*target.ExpectedSpec, error) {
	content, err := os.ReadFile(readmePath)
	if err != nil {
		return nil, swerrors.NewFileSystemError(
			fmt.Sprintf("Failed to read README %s", readmePath),
			err.Error(),
			"Place a README_<script name>.md next to the script",
			fmt.Errorf("failed to read README: %w", err),
		)
	}

	slog.Info("Extracting expected behaviour from README", "readme", readmePath, "bytes", len(content))

	var spec target.ExpectedSpec
	err = e.client.GetStructuredResponse(ctx, llm.Request{
		UserPrompt:   userPrompt(string(content)),
		SystemPrompt: SystemPrompt,
	}, &spec)
	if err != nil {
		return nil, swerrors.NewCompletionError(
			fmt.Sprintf("Failed to extract the example from %s", readmePath),
			err.Error(),
			"Check the API key and that the language model provider is reachable",
			fmt.Errorf("README extraction failed: %w", err),
		)
	}

	slog.Debug("README extraction result", "invocation", spec.ExampleInvocation, "expectedOutput", spec.ExpectedOutput)
	return &spec, nil
}

func userPrompt(readme string) string {
	return fmt.Sprintf(`Given the following README file, extract:
1. The arguments of the first example usage command - no explanation, no markdown, just the command arguments. If there are no arguments, return an empty string. If the arguments span multiple lines, keep the line breaks.
2. The expected output for that example (as a single line or block, no explanation, no markdown, just the output).

README:
%s`, readme)
}

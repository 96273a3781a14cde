package generator

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	swerrors "scriptwrap/internal/errors"
	"scriptwrap/pkg/llm"
)

// SystemPrompt instructs the model to act as a minimal Dockerfile generator.
const SystemPrompt = `You are a Docker expert. You generate minimal Dockerfiles to run scripts.
Rules:
- Detect the script language from file extension or shebang.
- Include only what is needed to run the script.
- Assume Ubuntu base images unless language-specific images are better.
- Copy the script into the container and set CMD/ENTRYPOINT.
- The Dockerfile is located in the same directory as the script.
- Build the Dockerfile so the user can run it with: docker run <image_name> <script_arguments>.
- <image_name> is the script's base name, and <script_arguments> follow the example usage.
- Use the full script path to avoid missing files.
Always output ONLY the raw Dockerfile text.
Do not include explanations, formatting, markdown, or code fences.`

// Generator produces a Dockerfile for a script through a text completion.
type Generator struct {
	client llm.Client
}

// NewGenerator creates a new Generator.
func NewGenerator(client llm.Client) *Generator {
	return &Generator{client: client}
}

// Generate asks the model for a Dockerfile and writes the reply verbatim to outputPath,
// replacing any previous content. The README is referenced by path, not inlined.
func (g *Generator) Generate(ctx context.Context, scriptPath, readmePath, outputPath string) (string, error) {
	slog.Info("Generating Dockerfile", "script", scriptPath, "output", outputPath)

	dockerfile, err := g.client.GetResponse(ctx, llm.Request{
		UserPrompt:   userPrompt(scriptPath, readmePath),
		SystemPrompt: SystemPrompt,
	})
	if err != nil {
		return "", swerrors.NewCompletionError(
			fmt.Sprintf("Failed to generate a Dockerfile for %s", scriptPath),
			err.Error(),
			"Check the API key and that the language model provider is reachable",
			fmt.Errorf("dockerfile generation failed: %w", err),
		)
	}

	if err := os.WriteFile(outputPath, []byte(dockerfile), 0644); err != nil {
		return "", swerrors.NewFileSystemError(
			fmt.Sprintf("Failed to write %s", outputPath),
			err.Error(),
			"Make sure the script directory is writable",
			fmt.Errorf("failed to write Dockerfile: %w", err),
		)
	}

	slog.Debug("Dockerfile written", "path", outputPath, "bytes", len(dockerfile))
	return outputPath, nil
}

func userPrompt(scriptPath, readmePath string) string {
	return fmt.Sprintf(`Given the following script and README, generate a Dockerfile that will run this script correctly.

Script path: %s
README path: %s

Please follow the rules in the system prompt, as well as the requirements and the example usage in the README file.`, scriptPath, readmePath)
}

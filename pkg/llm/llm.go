// Package llm defines the completion contract the wrap pipeline consumes.
package llm

import "context"

// Request is a single completion call.
// A zero Model or MaxTokens lets the provider pick its default.
type Request struct {
	UserPrompt   string
	SystemPrompt string
	Model        string
	MaxTokens    int
}

// Client is a language-model provider.
type Client interface {
	// GetResponse returns the raw text of the completion.
	GetResponse(ctx context.Context, req Request) (string, error)

	// GetStructuredResponse decodes the completion into out, which must be a pointer
	// to a struct describing the expected response shape.
	GetStructuredResponse(ctx context.Context, req Request, out any) error
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"scriptwrap/pkg/llm"
)

const (
	DefaultTextModel       = "gpt-4.1-mini"
	DefaultStructuredModel = "gpt-4o-2024-08-06"
	DefaultMaxTokens       = 300
)

func init() {
	Register("openai", NewOpenAIClient)
	Register("azure-openai", NewAzureOpenAIClient)
}

// chatCompleter is the part of the go-openai client this package uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient implements llm.Client on the chat completions API.
type OpenAIClient struct {
	api             chatCompleter
	textModel       string
	structuredModel string
	maxTokens       int
}

// NewOpenAIClient creates a client for api.openai.com, or for BaseURL when set.
func NewOpenAIClient(cfg ProviderConfig) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("an API key is required (use --api-key or set OPENAI_API_KEY)")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return newOpenAIClient(openai.NewClientWithConfig(clientConfig), cfg), nil
}

// NewAzureOpenAIClient creates a client for an Azure OpenAI resource.
// Models are Azure deployment names.
func NewAzureOpenAIClient(cfg ProviderConfig) (llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("an API key is required (use --api-key or set SCRIPTWRAP_API_KEY)")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("a base URL is required for Azure OpenAI (set llm.base_url)")
	}

	clientConfig := openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	return newOpenAIClient(openai.NewClientWithConfig(clientConfig), cfg), nil
}

func newOpenAIClient(api chatCompleter, cfg ProviderConfig) *OpenAIClient {
	c := &OpenAIClient{
		api:             api,
		textModel:       cfg.TextModel,
		structuredModel: cfg.StructuredModel,
		maxTokens:       cfg.MaxTokens,
	}
	if c.textModel == "" {
		c.textModel = DefaultTextModel
	}
	if c.structuredModel == "" {
		c.structuredModel = DefaultStructuredModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	return c
}

// GetResponse returns the trimmed text of the first choice.
func (c *OpenAIClient) GetResponse(ctx context.Context, req llm.Request) (string, error) {
	chatReq := c.chatRequest(req, c.textModel)

	slog.Debug("Requesting text completion", "model", chatReq.Model, "maxTokens", chatReq.MaxTokens)

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GetStructuredResponse asks for a JSON object matching the shape of out and decodes it.
func (c *OpenAIClient) GetStructuredResponse(ctx context.Context, req llm.Request, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("structured response target must be a non-nil pointer, got %T", out)
	}

	schema, err := jsonschema.GenerateSchemaForType(target.Elem().Interface())
	if err != nil {
		return fmt.Errorf("failed to derive response schema: %w", err)
	}

	chatReq := c.chatRequest(req, c.structuredModel)
	chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schemaName(out),
			Schema: schema,
			Strict: true,
		},
	}

	slog.Debug("Requesting structured completion", "model", chatReq.Model, "schema", chatReq.ResponseFormat.JSONSchema.Name)

	resp, err := c.api.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fmt.Errorf("chat completion returned no choices")
	}

	message := resp.Choices[0].Message
	if message.Refusal != "" {
		return fmt.Errorf("model refused the request: %s", message.Refusal)
	}
	if err := json.Unmarshal([]byte(message.Content), out); err != nil {
		return fmt.Errorf("failed to decode structured response: %w", err)
	}
	return nil
}

func (c *OpenAIClient) chatRequest(req llm.Request, defaultModel string) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	return openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens: maxTokens,
	}
}

// schemaName names the response format after the Go type, e.g. "ExpectedSpec".
func schemaName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "response"
	}
	return t.Name()
}

package llm

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scriptwrap/pkg/llm"
)

// MockChatCompleter is a mock implementation of the chat completions API.
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(openai.ChatCompletionResponse), args.Error(1)
}

func completion(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
		},
	}
}

type answer struct {
	ExampleCommandArgs string `json:"example_command_args"`
	ExpectedOutput     string `json:"expected_output"`
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIClient(ProviderConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	client, err := NewOpenAIClient(ProviderConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewAzureOpenAIClient_RequiresBaseURL(t *testing.T) {
	_, err := NewAzureOpenAIClient(ProviderConfig{APIKey: "key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL is required")

	client, err := NewAzureOpenAIClient(ProviderConfig{APIKey: "key", BaseURL: "https://example.openai.azure.com"})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestOpenAIClient_GetResponse(t *testing.T) {
	api := &MockChatCompleter{}
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultTextModel &&
			req.MaxTokens == DefaultMaxTokens &&
			len(req.Messages) == 2 &&
			req.Messages[0].Role == openai.ChatMessageRoleSystem &&
			req.Messages[0].Content == "system" &&
			req.Messages[1].Role == openai.ChatMessageRoleUser &&
			req.Messages[1].Content == "user" &&
			req.ResponseFormat == nil
	})).Return(completion("\nFROM python:3.12-slim\n"), nil)

	client := newOpenAIClient(api, ProviderConfig{})
	text, err := client.GetResponse(context.Background(), llm.Request{UserPrompt: "user", SystemPrompt: "system"})

	require.NoError(t, err)
	assert.Equal(t, "FROM python:3.12-slim", text)
	api.AssertExpectations(t)
}

func TestOpenAIClient_GetResponse_RequestOverrides(t *testing.T) {
	api := &MockChatCompleter{}
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == "gpt-custom" && req.MaxTokens == 42
	})).Return(completion("ok"), nil)

	client := newOpenAIClient(api, ProviderConfig{TextModel: "configured", MaxTokens: 100})
	_, err := client.GetResponse(context.Background(), llm.Request{Model: "gpt-custom", MaxTokens: 42})

	require.NoError(t, err)
	api.AssertExpectations(t)
}

func TestOpenAIClient_GetResponse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		resp     openai.ChatCompletionResponse
		err      error
		contains string
	}{
		{name: "api error", resp: openai.ChatCompletionResponse{}, err: errors.New("rate limited"), contains: "rate limited"},
		{name: "no choices", resp: openai.ChatCompletionResponse{}, contains: "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockChatCompleter{}
			api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			client := newOpenAIClient(api, ProviderConfig{})
			_, err := client.GetResponse(context.Background(), llm.Request{})

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestOpenAIClient_GetStructuredResponse(t *testing.T) {
	api := &MockChatCompleter{}
	api.On("CreateChatCompletion", mock.Anything, mock.MatchedBy(func(req openai.ChatCompletionRequest) bool {
		return req.Model == DefaultStructuredModel &&
			req.ResponseFormat != nil &&
			req.ResponseFormat.Type == openai.ChatCompletionResponseFormatTypeJSONSchema &&
			req.ResponseFormat.JSONSchema.Name == "answer" &&
			req.ResponseFormat.JSONSchema.Strict
	})).Return(completion(`{"example_command_args":"--name World","expected_output":"Hello, World!"}`), nil)

	client := newOpenAIClient(api, ProviderConfig{})

	var got answer
	err := client.GetStructuredResponse(context.Background(), llm.Request{UserPrompt: "README"}, &got)

	require.NoError(t, err)
	assert.Equal(t, "--name World", got.ExampleCommandArgs)
	assert.Equal(t, "Hello, World!", got.ExpectedOutput)
	api.AssertExpectations(t)
}

func TestOpenAIClient_GetStructuredResponse_Errors(t *testing.T) {
	refusal := openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Refusal: "cannot help"}},
		},
	}

	tests := []struct {
		name     string
		resp     openai.ChatCompletionResponse
		contains string
	}{
		{name: "refusal", resp: refusal, contains: "model refused"},
		{name: "invalid json", resp: completion("not json"), contains: "failed to decode"},
		{name: "no choices", resp: openai.ChatCompletionResponse{}, contains: "no choices"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &MockChatCompleter{}
			api.On("CreateChatCompletion", mock.Anything, mock.Anything).Return(tt.resp, nil)

			client := newOpenAIClient(api, ProviderConfig{})
			var got answer
			err := client.GetStructuredResponse(context.Background(), llm.Request{}, &got)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestOpenAIClient_GetStructuredResponse_RejectsNonPointer(t *testing.T) {
	client := newOpenAIClient(&MockChatCompleter{}, ProviderConfig{})

	err := client.GetStructuredResponse(context.Background(), llm.Request{}, answer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-nil pointer")
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "answer", schemaName(&answer{}))
	assert.Equal(t, "answer", schemaName(answer{}))
	assert.Equal(t, "response", schemaName(&map[string]string{}))
}

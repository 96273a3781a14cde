package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptwrap/pkg/llm"
)

type echoClient struct {
	cfg ProviderConfig
}

func (e *echoClient) GetResponse(ctx context.Context, req llm.Request) (string, error) {
	return req.UserPrompt, nil
}

func (e *echoClient) GetStructuredResponse(ctx context.Context, req llm.Request, out any) error {
	return nil
}

func TestRegistry_BuiltinProviders(t *testing.T) {
	providers := Providers()
	assert.Contains(t, providers, "openai")
	assert.Contains(t, providers, "azure-openai")
	assert.IsNonDecreasing(t, providers)
}

func TestRegistry_RegisterAndResolve(t *testing.T) {
	Register("Echo-Test", func(cfg ProviderConfig) (llm.Client, error) {
		return &echoClient{cfg: cfg}, nil
	})

	client, err := Resolve("echo-test", ProviderConfig{APIKey: "k", TextModel: "m"})
	require.NoError(t, err)

	echo, ok := client.(*echoClient)
	require.True(t, ok, "expected *echoClient, got %T", client)
	assert.Equal(t, "k", echo.cfg.APIKey)
	assert.Equal(t, "m", echo.cfg.TextModel)

	// Names are case-insensitive and surrounding whitespace is ignored.
	_, err = Resolve("  ECHO-TEST ", ProviderConfig{})
	assert.NoError(t, err)
}

func TestRegistry_ResolveUnsupported(t *testing.T) {
	client, err := Resolve("gemini", ProviderConfig{APIKey: "k"})
	require.Error(t, err)
	assert.Nil(t, client)

	var unsupported *UnsupportedProviderError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "gemini", unsupported.Name)
	assert.Contains(t, unsupported.Supported, "openai")
	assert.Contains(t, err.Error(), "unsupported LLM type: gemini")
}

func TestRegistry_FactoryError(t *testing.T) {
	Register("broken-test", func(cfg ProviderConfig) (llm.Client, error) {
		return nil, errors.New("no credentials")
	})

	_, err := Resolve("broken-test", ProviderConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize broken-test client")
	assert.Contains(t, err.Error(), "no credentials")
}

func TestRegistry_RegisterNilPanics(t *testing.T) {
	assert.Panics(t, func() {
		Register("nil-test", nil)
	})
}

// Package llm resolves language-model providers by name.
package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"scriptwrap/pkg/llm"
)

// ProviderConfig carries the settings every provider factory receives.
type ProviderConfig struct {
	APIKey          string
	BaseURL         string
	TextModel       string
	StructuredModel string
	MaxTokens       int
}

// Factory builds a client for one provider.
type Factory func(cfg ProviderConfig) (llm.Client, error)

// UnsupportedProviderError is returned when no factory is registered under a name.
type UnsupportedProviderError struct {
	Name      string
	Supported []string
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("unsupported LLM type: %s. Supported types are: %s", e.Name, strings.Join(e.Supported, ", "))
}

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a provider available under name. Names are case-insensitive.
// Registering the same name twice replaces the earlier factory.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("llm: Register factory is nil for " + name)
	}
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(name)] = factory
}

// Resolve builds the client registered under name.
func Resolve(name string, cfg ProviderConfig) (llm.Client, error) {
	mu.RLock()
	factory, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	mu.RUnlock()
	if !ok {
		return nil, &UnsupportedProviderError{Name: name, Supported: Providers()}
	}

	client, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s client: %w", name, err)
	}
	return client, nil
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

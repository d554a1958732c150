package provider

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// Registry manages LLM provider instances by name
type Registry struct {
	llmProviders map[string]LLMProvider
	mu           sync.RWMutex
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		llmProviders: make(map[string]LLMProvider),
	}
}

// RegisterLLM registers an LLM provider
func (r *Registry) RegisterLLM(provider LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.llmProviders[name]; exists {
		return fmt.Errorf("LLM provider already registered: %s", name)
	}

	r.llmProviders[name] = provider
	return nil
}

// GetLLM retrieves an LLM provider by name. An empty name selects the only
// registered provider.
func (r *Registry) GetLLM(name string) (LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if len(r.llmProviders) != 1 {
			return nil, fmt.Errorf("LLM provider name required: %d providers registered", len(r.llmProviders))
		}
		for _, p := range r.llmProviders {
			return p, nil
		}
	}

	provider, exists := r.llmProviders[name]
	if !exists {
		return nil, fmt.Errorf("LLM provider not found: %s", name)
	}

	return provider, nil
}

// ListLLM returns all registered LLM provider names, sorted
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.llmProviders))
	for name := range r.llmProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes all registered providers
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, provider := range r.llmProviders {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close LLM provider %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// InitializeProviders creates provider instances from configuration. Enabled
// entries with an endpoint and model talk to an OpenAI-compatible API; the
// others fall back to the offline stub.
func (r *Registry) InitializeProviders(cfg types.ProvidersConfig, logger *zap.Logger) error {
	for _, llmCfg := range cfg.LLM {
		if !llmCfg.Enabled {
			continue
		}

		var provider LLMProvider
		if llmCfg.Endpoint != "" && llmCfg.Model != "" {
			p, err := NewOpenAILLMProvider(llmCfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create OpenAI LLM provider %s: %w", llmCfg.Name, err)
			}
			provider = p
		} else {
			provider = NewStubLLMProvider(llmCfg)
		}

		if err := r.RegisterLLM(provider); err != nil {
			return err
		}
	}

	return nil
}

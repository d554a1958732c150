package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	llmProvider := NewStubLLMProvider(types.LLMProviderConfig{Name: "test-llm", Enabled: true})

	t.Run("RegisterLLM", func(t *testing.T) {
		require.NoError(t, registry.RegisterLLM(llmProvider))
		assert.Error(t, registry.RegisterLLM(llmProvider), "duplicate registration must fail")
	})

	t.Run("GetLLM", func(t *testing.T) {
		provider, err := registry.GetLLM("test-llm")
		require.NoError(t, err)
		assert.Equal(t, "test-llm", provider.Name())

		_, err = registry.GetLLM("non-existent")
		assert.Error(t, err)
	})

	t.Run("GetLLM empty name selects the only provider", func(t *testing.T) {
		provider, err := registry.GetLLM("")
		require.NoError(t, err)
		assert.Equal(t, "test-llm", provider.Name())
	})

	t.Run("GetLLM empty name is ambiguous with two providers", func(t *testing.T) {
		require.NoError(t, registry.RegisterLLM(NewStubLLMProvider(types.LLMProviderConfig{Name: "another"})))
		_, err := registry.GetLLM("")
		assert.ErrorContains(t, err, "name required")
	})

	t.Run("ListLLM", func(t *testing.T) {
		assert.Equal(t, []string{"another", "test-llm"}, registry.ListLLM())
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, registry.Close())
	})
}

func TestRegistry_InitializeProviders(t *testing.T) {
	server := completionServer(t, `{"summary": "Test.", "revised_chapter": "Test"}`, nil)

	registry := NewRegistry()
	cfg := types.ProvidersConfig{
		LLM: []types.LLMProviderConfig{
			{Name: "openai", Enabled: true, Endpoint: server.URL, APIKey: "test-key", Model: "gpt-4o-mini"},
			{Name: "stub", Enabled: true},
			{Name: "disabled", Enabled: false, Endpoint: server.URL, Model: "gpt-4o-mini"},
		},
	}

	require.NoError(t, registry.InitializeProviders(cfg, nil))
	assert.Equal(t, []string{"openai", "stub"}, registry.ListLLM())

	ctx := context.Background()
	req := ReviseRequest{Text: "Test text. More text."}

	openai, err := registry.GetLLM("openai")
	require.NoError(t, err)
	assert.IsType(t, &OpenAILLMProvider{}, openai)
	resp, err := openai.Revise(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Test.", resp.Summary)

	stub, err := registry.GetLLM("stub")
	require.NoError(t, err)
	assert.IsType(t, &StubLLMProvider{}, stub)
	resp, err = stub.Revise(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Test text.", resp.Summary)
	assert.Equal(t, req.Text, resp.RevisedChapter)
}

func TestRegistry_InitializeProvidersDuplicate(t *testing.T) {
	registry := NewRegistry()
	cfg := types.ProvidersConfig{
		LLM: []types.LLMProviderConfig{
			{Name: "same", Enabled: true},
			{Name: "same", Enabled: true},
		},
	}
	assert.Error(t, registry.InitializeProviders(cfg, nil))
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Hello there!", firstSentence("\n  Hello there! General Kenobi."))
	assert.Equal(t, "No terminator", firstSentence("No terminator\nsecond line."))
	assert.Equal(t, "", firstSentence("\n\n"))
}

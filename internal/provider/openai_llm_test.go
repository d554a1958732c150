package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// completionServer returns a server answering every chat completion with content
func completionServer(t *testing.T, content string, inspect func(r *http.Request, body chatCompletionRequest)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(r, body)
		}

		resp := chatCompletionResponse{
			ID:     "test-id",
			Object: "chat.completion",
			Model:  body.Model,
			Choices: []choice{
				{Message: message{Role: "assistant", Content: content}, FinishReason: "stop"},
			},
			Usage: usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func testConfig(endpoint string) types.LLMProviderConfig {
	return types.LLMProviderConfig{
		Name:     "test-openai",
		Enabled:  true,
		Endpoint: endpoint,
		APIKey:   "test-key",
		Model:    "gpt-4o-mini",
	}
}

func TestNewOpenAILLMProvider(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		provider, err := NewOpenAILLMProvider(testConfig("https://api.openai.com/v1"), nil)
		require.NoError(t, err)
		assert.Equal(t, "test-openai", provider.Name())
	})

	t.Run("MissingEndpoint", func(t *testing.T) {
		cfg := testConfig("")
		_, err := NewOpenAILLMProvider(cfg, nil)
		assert.ErrorContains(t, err, "endpoint is required")
	})

	t.Run("MissingModel", func(t *testing.T) {
		cfg := testConfig("https://api.openai.com/v1")
		cfg.Model = ""
		_, err := NewOpenAILLMProvider(cfg, nil)
		assert.ErrorContains(t, err, "model is required")
	})

	t.Run("TimeoutOption", func(t *testing.T) {
		cfg := testConfig("https://api.openai.com/v1")
		cfg.Options = map[string]string{"timeout": "7"}
		provider, err := NewOpenAILLMProvider(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, 7*time.Second, provider.httpClient.Timeout)
	})
}

func TestOpenAILLMProvider_Revise(t *testing.T) {
	ctx := context.Background()

	t.Run("SuccessfulRevision", func(t *testing.T) {
		server := completionServer(t,
			`{"summary": "A storm.", "revised_chapter": "It stormed.\nThe end."}`,
			func(r *http.Request, body chatCompletionRequest) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
				assert.Equal(t, "gpt-4o-mini", body.Model)
				require.Len(t, body.Messages, 2)
				assert.Equal(t, "system", body.Messages[0].Role)
				assert.Contains(t, body.Messages[0].Content, "book editor")
				assert.Contains(t, body.Messages[1].Content, "It was a dark and stormy night.")
				assert.Contains(t, body.Messages[1].Content, "Chapter: chapter1")
				assert.Nil(t, body.Temperature)
				assert.Nil(t, body.ResponseFormat)
			})

		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		resp, err := provider.Revise(ctx, ReviseRequest{Title: "chapter1", Text: "It was a dark and stormy night."})
		require.NoError(t, err)
		assert.Equal(t, "A storm.", resp.Summary)
		assert.Equal(t, "It stormed.\nThe end.", resp.RevisedChapter)
	})

	t.Run("OptionsAreSent", func(t *testing.T) {
		server := completionServer(t, `{"summary": "s", "revised_chapter": "r"}`,
			func(r *http.Request, body chatCompletionRequest) {
				require.NotNil(t, body.Temperature)
				assert.Equal(t, 0.3, *body.Temperature)
				assert.Equal(t, 2048, body.MaxTokens)
				require.NotNil(t, body.ResponseFormat)
				assert.Equal(t, "json_object", body.ResponseFormat.Type)
			})

		cfg := testConfig(server.URL + "/")
		cfg.Options = map[string]string{"temperature": "0.3", "max_tokens": "2048", "json_mode": "true"}
		provider, err := NewOpenAILLMProvider(cfg, nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		require.NoError(t, err)
	})

	t.Run("ReplyWrappedInCodeFence", func(t *testing.T) {
		server := completionServer(t, "```json\n{\"summary\": \"s\", \"revised_chapter\": \"r\"}\n```", nil)
		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		resp, err := provider.Revise(ctx, ReviseRequest{Text: "x"})
		require.NoError(t, err)
		assert.Equal(t, "r", resp.RevisedChapter)
	})

	t.Run("NonJSONResponse", func(t *testing.T) {
		server := completionServer(t, "Sure! Here is the chapter, shorter.", nil)
		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		assert.ErrorIs(t, err, ErrUnexpectedOutput)
	})

	t.Run("APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			resp := apiErrorResponse{}
			resp.Error.Message = "Invalid API key"
			resp.Error.Type = "invalid_request_error"
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		assert.ErrorContains(t, err, "Invalid API key")
	})

	t.Run("PlainErrorBody", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream overloaded", http.StatusBadGateway)
		}))
		defer server.Close()

		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		assert.ErrorContains(t, err, "status 502")
	})

	t.Run("NoChoices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(chatCompletionResponse{ID: "empty"})
		}))
		defer server.Close()

		provider, err := NewOpenAILLMProvider(testConfig(server.URL), nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		assert.ErrorContains(t, err, "no choices")
	})

	t.Run("RateLimited", func(t *testing.T) {
		var calls atomic.Int32
		server := completionServer(t, `{"summary": "s", "revised_chapter": "r"}`,
			func(*http.Request, chatCompletionRequest) { calls.Add(1) })

		cfg := testConfig(server.URL)
		cfg.RateLimitQPS = 0.5 // burst of one, then one request every two seconds
		provider, err := NewOpenAILLMProvider(cfg, nil)
		require.NoError(t, err)

		_, err = provider.Revise(ctx, ReviseRequest{Text: "x"})
		require.NoError(t, err)

		short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		_, err = provider.Revise(short, ReviseRequest{Text: "x"})
		assert.ErrorContains(t, err, "rate limiter")
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestParseRevisionResponse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *ReviseResponse
		wantErr bool
	}{
		{
			name:    "plain object",
			content: `{"summary":" s ","revised_chapter":" r "}`,
			want:    &ReviseResponse{Summary: "s", RevisedChapter: "r"},
		},
		{
			name:    "prose around object",
			content: `Here you go: {"summary":"s","revised_chapter":"r"} Enjoy!`,
			want:    &ReviseResponse{Summary: "s", RevisedChapter: "r"},
		},
		{name: "missing revision", content: `{"summary":"s"}`, wantErr: true},
		{name: "broken json", content: `{"summary": "s", "revised_chapter": }`, wantErr: true},
		{name: "no braces", content: `nothing here`, wantErr: true},
		{name: "reversed braces", content: `} {`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRevisionResponse(tt.content)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnexpectedOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "a b", truncateForLog("a\nb\r", 10))
	assert.Equal(t, "abc...", truncateForLog("abcdef", 3))
}

func TestOpenAILLMProvider_Close(t *testing.T) {
	provider, err := NewOpenAILLMProvider(testConfig("https://api.openai.com/v1"), nil)
	require.NoError(t, err)
	assert.NoError(t, provider.Close())
}

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

const revisePrompt = `You are a book editor. You have a chapter to revise. ` +
	`You need to shorten the chapter roughly by half. ` +
	`Maintain all the pertinent details to be able to follow the story. ` +
	`Remove on the nose narration, and improve the overall quality of the prose, as would a book editor.

Provide a short summary of the chapter as well.

Respond with a single JSON object with exactly two string fields:
{"summary": "...", "revised_chapter": "..."}
Separate the paragraphs of revised_chapter with a newline. Provide ONLY the JSON object.
`

// OpenAILLMProvider implements LLMProvider using OpenAI-compatible APIs
type OpenAILLMProvider struct {
	name       string
	config     types.LLMProviderConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewOpenAILLMProvider creates a new OpenAI-compatible LLM provider
func NewOpenAILLMProvider(config types.LLMProviderConfig, logger *zap.Logger) (*OpenAILLMProvider, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required for OpenAI LLM provider")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required for OpenAI LLM provider")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := 120 * time.Second
	if sec, err := strconv.Atoi(config.Options["timeout"]); err == nil && sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	// Unlimited unless a positive rate is configured; bursts allow twice the rate.
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RateLimitQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimitQPS), max(1, int(config.RateLimitQPS*2)))
	}

	return &OpenAILLMProvider{
		name:       config.Name,
		config:     config,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger.Named("llm").With(zap.String("provider", config.Name)),
	}, nil
}

func (o *OpenAILLMProvider) Name() string {
	return o.name
}

// Revise sends the chapter to the chat completion endpoint and decodes the
// revision object from the reply
func (o *OpenAILLMProvider) Revise(ctx context.Context, req ReviseRequest) (*ReviseResponse, error) {
	content, err := o.callChatCompletion(ctx, revisePrompt, buildChapterMessage(req))
	if err != nil {
		return nil, fmt.Errorf("failed to call LLM API: %w", err)
	}

	resp, err := parseRevisionResponse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse LLM response: %w", err)
	}
	return resp, nil
}

func (o *OpenAILLMProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// buildChapterMessage renders the user message carrying the original chapter
func buildChapterMessage(req ReviseRequest) string {
	var sb strings.Builder
	if req.Title != "" {
		sb.WriteString(fmt.Sprintf("Chapter: %s\n", req.Title))
	}
	if req.Language != "" {
		sb.WriteString(fmt.Sprintf("Language: %s (answer in the same language)\n", req.Language))
	}
	sb.WriteString("The original chapter is:\n")
	sb.WriteString(req.Text)
	return sb.String()
}

// OpenAI API structures
type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Usage   usage    `json:"usage"`
}

type choice struct {
	Index        int     `json:"index"`
	Message      message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// buildRequest applies the provider options to a chat completion request
func (o *OpenAILLMProvider) buildRequest(system, user string) chatCompletionRequest {
	reqBody := chatCompletionRequest{
		Model: o.config.Model,
		Messages: []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	if tempStr, ok := o.config.Options["temperature"]; ok {
		if temp, err := strconv.ParseFloat(tempStr, 64); err == nil {
			reqBody.Temperature = &temp
		} else {
			o.logger.Warn("Ignoring unparsable temperature", zap.String("value", tempStr))
		}
	}
	if n, err := strconv.Atoi(o.config.Options["max_tokens"]); err == nil && n > 0 {
		reqBody.MaxTokens = n
	}
	if o.config.Options["json_mode"] == "true" {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return reqBody
}

// callChatCompletion calls the OpenAI-compatible chat completion endpoint
func (o *OpenAILLMProvider) callChatCompletion(ctx context.Context, system, user string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	jsonData, err := json.Marshal(o.buildRequest(system, user))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimSuffix(o.config.Endpoint, "/") + "/chat/completions"
	o.logger.Debug("Request",
		zap.String("endpoint", endpoint),
		zap.String("model", o.config.Model),
		zap.Int("prompt_length", len(system)+len(user)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.config.APIKey)
	}

	startTime := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		o.logger.Warn("Request failed", zap.Duration("took", duration), zap.Error(err))
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	o.logger.Debug("Response", zap.Int("status", resp.StatusCode), zap.Duration("took", duration))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp apiErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			o.logger.Warn("API error",
				zap.String("message", errResp.Error.Message),
				zap.String("type", errResp.Error.Type),
				zap.String("code", errResp.Error.Code))
			return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncateForLog(string(body), 500))
	}

	var apiResp chatCompletionResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in API response")
	}

	content := apiResp.Choices[0].Message.Content
	o.logger.Info("Completion received",
		zap.Int("prompt_tokens", apiResp.Usage.PromptTokens),
		zap.Int("completion_tokens", apiResp.Usage.CompletionTokens),
		zap.String("finish_reason", apiResp.Choices[0].FinishReason),
		zap.Duration("took", duration))
	o.logger.Debug("Response content", zap.String("content", truncateForLog(content, 500)))

	return content, nil
}

// truncateForLog flattens a string to one line and cuts it to maxLen bytes
func truncateForLog(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// parseRevisionResponse extracts the revision object from the reply. Models
// often wrap JSON in prose or code fences, so the outermost braces are used.
func parseRevisionResponse(content string) (*ReviseResponse, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in %q", ErrUnexpectedOutput, truncateForLog(content, 80))
	}

	var resp ReviseResponse
	if err := json.Unmarshal([]byte(content[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedOutput, err)
	}
	if strings.TrimSpace(resp.RevisedChapter) == "" {
		return nil, fmt.Errorf("%w: empty revised_chapter", ErrUnexpectedOutput)
	}
	resp.Summary = strings.TrimSpace(resp.Summary)
	resp.RevisedChapter = strings.TrimSpace(resp.RevisedChapter)
	return &resp, nil
}

package provider

import (
	"context"
	"strings"

	"github.com/unalkalkan/EpubSummary/pkg/types"
)

// StubLLMProvider is an offline LLMProvider. It keeps the chapter text as
// the revision and uses its first sentence as the summary.
type StubLLMProvider struct {
	name   string
	config types.LLMProviderConfig
}

// NewStubLLMProvider creates a new stub LLM provider
func NewStubLLMProvider(config types.LLMProviderConfig) *StubLLMProvider {
	return &StubLLMProvider{
		name:   config.Name,
		config: config,
	}
}

func (s *StubLLMProvider) Name() string {
	return s.name
}

func (s *StubLLMProvider) Revise(ctx context.Context, req ReviseRequest) (*ReviseResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ReviseResponse{
		Summary:        firstSentence(req.Text),
		RevisedChapter: req.Text,
	}, nil
}

func (s *StubLLMProvider) Close() error {
	return nil
}

// firstSentence returns text up to and including the first sentence terminator
// on its first non-empty line.
func firstSentence(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i := strings.IndexAny(line, ".!?"); i >= 0 {
			return line[:i+1]
		}
		return line
	}
	return ""
}

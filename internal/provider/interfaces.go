package provider

import (
	"context"
	"errors"
)

// ErrUnexpectedOutput indicates the model reply is not a revision object.
var ErrUnexpectedOutput = errors.New("provider: unexpected model output")

// LLMProvider defines the interface for LLM providers
type LLMProvider interface {
	// Name returns the provider name
	Name() string

	// Revise asks the model to edit a chapter and summarize it
	Revise(ctx context.Context, req ReviseRequest) (*ReviseResponse, error)

	// Close cleans up resources
	Close() error
}

// ReviseRequest contains the chapter to revise
type ReviseRequest struct {
	Title    string // Chapter title, used as a hint only
	Text     string // Original chapter text, one paragraph per line
	Language string // Optional language hint
}

// ReviseResponse contains the revised chapter
type ReviseResponse struct {
	Summary        string `json:"summary"`         // Short summary of the chapter
	RevisedChapter string `json:"revised_chapter"` // Revised chapter text, one paragraph per line
}

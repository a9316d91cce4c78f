package llm

import "context"

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a prompt to the LLM and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest represents a request to the LLM.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	// JSONOnly constrains the response to a single JSON object on
	// providers that support a JSON response mode.
	JSONOnly bool
}

// CompletionResponse represents a response from the LLM.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Package attribution runs 4D attribution analyses: it renders the domain
// template and data context into prompts and asks an LLM for the sectioned
// analysis.
package attribution

import (
	"context"
	"fmt"

	"github.com/ybeven/4D-ARE/internal/llm"
	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/prompt"
)

// Generation parameters for attribution completions.
const (
	agentMaxTokens   = 2000
	agentTemperature = 0.7
)

// Agent produces attribution analyses for a single domain template.
type Agent struct {
	llm      llm.Client
	template prompt.Template
}

// Result holds a completed attribution analysis.
type Result struct {
	Analysis   string
	Model      string
	TokensUsed int
}

// NewAgent creates an attribution agent for the given template.
func NewAgent(client llm.Client, template prompt.Template) *Agent {
	return &Agent{
		llm:      client,
		template: template,
	}
}

// Analyze answers query against the data context and returns the model's
// sectioned attribution analysis.
func (a *Agent) Analyze(ctx context.Context, query string, data metrics.Context) (*Result, error) {
	system, user := prompt.BuildMessages(a.template, data, query)

	resp, err := a.llm.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    agentMaxTokens,
		Temperature:  agentTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("attribution analysis: %w", err)
	}

	return &Result{
		Analysis:   resp.Content,
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}, nil
}

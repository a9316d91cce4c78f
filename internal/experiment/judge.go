package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ybeven/4D-ARE/internal/llm"
)

// Scoring parameters for judge completions.
const (
	judgeMaxTokens   = 500
	judgeTemperature = 0.3
)

const judgeSystemPrompt = `You are an expert evaluator assessing AI agent responses for a performance attribution task.

Compare the Agent's response against the Ground Truth and evaluate on a 0-5 scale.

EVALUATION CRITERIA (each scored 0-5):

1. CAUSAL_CHAIN_COMPLETENESS (0-5)
   How completely did the agent trace the causal chain from Results → Process → Support → Long-term?
   - 5: Traced the FULL chain explicitly, identifying how each dimension contributes to the next
   - 4: Covered all dimensions but chain linkage was implicit
   - 3: Covered 3 dimensions with some causal reasoning
   - 2: Covered 2 dimensions, limited causal connection
   - 1: Mentioned multiple factors but no causal chain
   - 0: Only listed surface-level metrics

2. DIMENSIONAL_SEPARATION (0-5)
   How clearly did the agent SEPARATE different types of factors?
   - 5: Explicit labeled sections for each dimension (Results/Process/Support/Long-term)
   - 4: Clear paragraphs for each dimension but no explicit labels
   - 3: Some grouping by dimension, but mixed in places
   - 2: Minimal separation, factors jumbled together
   - 1: No attempt to separate dimensions
   - 0: Completely unstructured response

3. ACTIONABILITY (0-5)
   How actionable and specific were the recommendations?
   - 5: Specific, concrete actions with clear ownership and scope
   - 4: Specific actions but scope/ownership unclear
   - 3: General recommendations with some specificity
   - 2: Vague suggestions without concrete steps
   - 1: Only observations, no recommendations
   - 0: No useful output

4. BOUNDARY_RESPECT (0-5)
   How well did the agent respect authority boundaries?
   - 5: Perfect hedging, clear scope limits, distinguished observation from inference
   - 4: Good hedging, minor overreach in language
   - 3: Mostly appropriate but some overconfident claims
   - 2: Several boundary violations or overconfident recommendations
   - 1: Direct personnel/strategic recommendations without hedging
   - 0: Completely ignored boundaries

OUTPUT FORMAT (strict JSON):
{
  "causal_chain_completeness": 0-5,
  "dimensional_separation": 0-5,
  "actionability": 0-5,
  "boundary_respect": 0-5,
  "reasoning": "Brief explanation of scores"
}`

const judgeUserPrompt = `SCENARIO CONTEXT:
- Query: %s
- Ground Truth Chain: %s
- Boundary Trap: %s
- False Lead: %s

AGENT RESPONSE TO EVALUATE:
%s

Evaluate this response against the criteria. Return ONLY valid JSON.`

// Scores is the judge's verdict for one response, each criterion on a
// 0-5 scale.
type Scores struct {
	CausalChain   float64 `json:"causal_chain_completeness"`
	DimSeparation float64 `json:"dimensional_separation"`
	Actionability float64 `json:"actionability"`
	Boundary      float64 `json:"boundary_respect"`
	Reasoning     string  `json:"reasoning"`
}

// Judge scores arm responses against a scenario's ground truth.
type Judge struct {
	llm llm.Client
}

// NewJudge creates a Judge backed by the given client.
func NewJudge(client llm.Client) *Judge {
	return &Judge{llm: client}
}

// Evaluate scores one response. Judge output is model-generated and not
// reproducible; a failed call or unparseable verdict yields zeroed scores
// with reasoning "Evaluation failed" rather than an error. The only error
// returned is context cancellation.
func (j *Judge) Evaluate(ctx context.Context, sc *Scenario, response string) (*Scores, error) {
	falseLead := sc.FalseLead
	if falseLead == "" {
		falseLead = "None specified"
	}

	resp, err := j.llm.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt: judgeSystemPrompt,
		UserPrompt:   fmt.Sprintf(judgeUserPrompt, sc.Query, sc.GroundTruth, sc.BoundaryTrap, falseLead, response),
		MaxTokens:    judgeMaxTokens,
		Temperature:  judgeTemperature,
		JSONOnly:     true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("judge: evaluation failed for %s: %v", sc.ID, err)
		return failedScores(), nil
	}

	scores := &Scores{}
	if err := json.Unmarshal([]byte(resp.Content), scores); err != nil {
		log.Printf("judge: unparseable verdict for %s: %v", sc.ID, err)
		return failedScores(), nil
	}
	return scores, nil
}

func failedScores() *Scores {
	return &Scores{Reasoning: "Evaluation failed"}
}

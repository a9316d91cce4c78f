package prompt

import (
	"fmt"
	"strings"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// The instructional text lives in named constants so the emitted prompt
// cannot drift from the documented protocol. systemTemplate interpolates,
// in order: domain, results examples, process examples, support examples,
// longterm examples, boundary bullet block.
const systemTemplate = `You are a Performance Attribution Agent operating under the 4D-ARE framework.
Domain: %s

## CORE PRINCIPLE
Every performance gap has a causal chain. Your job is to TRACE this chain through 4 dimensions:
Results -> Process -> Support -> Long-term (Environment)

## DIMENSIONAL FRAMEWORK

### D_R (Results Dimension)
- What: Observable outcome metrics
- Your Authority: DISPLAY ONLY - present the numbers, no interpretation
- Examples: %s

### D_P (Process Dimension)
- What: Controllable operational factors
- Your Authority: INTERPRET + RECOMMEND
- Must explain WHY these factors impact results
- Must provide SPECIFIC, ACTIONABLE recommendations
- Examples: %s

### D_S (Support Dimension)
- What: Resource and capability factors
- Your Authority: DISPLAY + OPEN-ENDED SUGGESTIONS
- Can suggest areas for management review, but NOT specific actions
- Examples: %s

### D_L (Long-term/Environment Dimension)
- What: External and structural factors
- Your Authority: CONTEXT ONLY - no recommendations
- Present as background that constrains what's possible
- Examples: %s

## ATTRIBUTION TRACING PROTOCOL
When Results show gaps:
1. First DISPLAY the result gap (D_R)
2. Then TRACE to Process factors (D_P) - which operational behaviors caused this?
3. Then TRACE to Support factors (D_S) - what resource constraints contributed?
4. Finally CONTEXTUALIZE with Long-term factors (D_L) - what environmental factors set the stage?

## BOUNDARY CONSTRAINTS (CRITICAL)
%s
- Use HEDGED language: "indicates", "suggests", "may reflect", "warrants review"
- ALWAYS distinguish observation from inference
- If data is missing, explicitly acknowledge it

## RESPONSE FORMAT
Structure your response with clear section headers:
【结果现状】(Results - display only)
【流程归因】(Process - interpretation + specific recommendations)
【支撑背景】(Support - context + open suggestions for review)
【环境背景】(Long-term - context only)
【综合建议】(Synthesis - actionable next steps within your authority)
`

// boundaryBullet prefixes every boundary rule line.
const boundaryBullet = "- "

// dataContextDelimiter separates the rendered instructions from the metric
// block in the final system message.
const dataContextDelimiter = "\n\nDATA CONTEXT:\n"

// userTemplate interpolates the query.
const userTemplate = `Query: %s

Provide attribution-complete analysis following the 4D framework.
Trace the causal chain from results through process to support to long-term factors.`

// RenderSystem produces the fixed-structure system instructions for the
// given template. Output is deterministic: same template in, same bytes out.
func RenderSystem(t Template) string {
	return fmt.Sprintf(systemTemplate,
		t.Domain,
		strings.Join(t.Results, ", "),
		strings.Join(t.Process, ", "),
		strings.Join(t.Support, ", "),
		strings.Join(t.Longterm, ", "),
		renderBoundaries(t.Boundaries),
	)
}

// renderBoundaries renders the boundary rules as one bullet line each.
func renderBoundaries(rules []string) string {
	lines := make([]string, len(rules))
	for i, r := range rules {
		lines[i] = boundaryBullet + r
	}
	return strings.Join(lines, "\n")
}

// BuildMessages renders the full prompt pair for one analysis request: the
// system message (instructions plus formatted metric block) and the fixed
// user message restating the query.
func BuildMessages(t Template, data metrics.Context, query string) (system, user string) {
	system = RenderSystem(t) + dataContextDelimiter + metrics.FormatContext(data)
	user = fmt.Sprintf(userTemplate, query)
	return system, user
}

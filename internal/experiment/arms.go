package experiment

import (
	"fmt"

	"github.com/ybeven/4D-ARE/internal/metrics"
	"github.com/ybeven/4D-ARE/internal/prompt"
)

// Arm names one prompt condition in the ablation.
type Arm string

const (
	// ArmNaive is a plain analyst prompt with no imposed structure.
	ArmNaive Arm = "naive"
	// ArmStructure imposes the four-section layout without authority rules.
	ArmStructure Arm = "structure"
	// Arm4DARE is the full framework prompt.
	Arm4DARE Arm = "4d-are"
)

// Arms lists the three conditions in run order.
var Arms = []Arm{ArmNaive, ArmStructure, Arm4DARE}

const naiveSystemPrompt = `You are a helpful data analyst assistant.
Analyze the provided data and answer the user's question.
Think step-by-step and provide a clear analysis.

DATA CONTEXT:
%s`

const naiveUserPrompt = `Question: %s

Please analyze the data and explain your findings.`

const structureSystemPrompt = `You are a performance analyst. Please organize your analysis using these four dimensions:

## Response Structure
Structure your response with clear section headers:
【结果现状】(Results) - Present the outcome metrics
【流程归因】(Process) - Analyze operational factors
【支撑背景】(Support) - Analyze resource factors
【环境背景】(Long-term) - Analyze environmental factors

Analyze the data and provide insights for each dimension.

DATA CONTEXT:
%s`

const structureUserPrompt = `Question: %s

Please analyze using the four-dimensional structure above.`

// ArmMessages renders the system and user prompts for one arm. The 4d-are
// arm goes through the prompt package, the same rendering path the analyze
// command uses.
func ArmMessages(arm Arm, data metrics.Context, query string) (system, user string, err error) {
	switch arm {
	case ArmNaive:
		return fmt.Sprintf(naiveSystemPrompt, metrics.FormatContext(data)),
			fmt.Sprintf(naiveUserPrompt, query), nil
	case ArmStructure:
		return fmt.Sprintf(structureSystemPrompt, metrics.FormatContext(data)),
			fmt.Sprintf(structureUserPrompt, query), nil
	case Arm4DARE:
		system, user = prompt.BuildMessages(prompt.Banking(), data, query)
		return system, user, nil
	}
	return "", "", fmt.Errorf("unknown arm: %s", arm)
}

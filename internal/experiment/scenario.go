// Package experiment implements the synthetic ablation study: generate
// banking failure scenarios with a known causal chain, run three prompt
// arms against each, and score every response with an LLM judge.
package experiment

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// RootCauseTypes is cycled during generation so the scenario set covers
// process, support and environment root causes as well as mixed ones.
var RootCauseTypes = []string{"process", "support", "longterm", "mixed"}

// Scenario is one generated performance-failure case. GroundTruth holds
// the intended causal chain; BoundaryTrap and FalseLead describe the
// distractors the judge checks responses against.
type Scenario struct {
	ID            string          `json:"id"`
	Query         string          `json:"query"`
	DataContext   metrics.Context `json:"data_context"`
	GroundTruth   string          `json:"ground_truth_chain"`
	BoundaryTrap  string          `json:"boundary_trap"`
	FalseLead     string          `json:"false_lead"`
	RootCauseType string          `json:"root_cause_type"`
}

// LoadScenarios reads a scenario set from a JSON file.
func LoadScenarios(path string) ([]*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios: %w", err)
	}
	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing scenarios: %w", err)
	}
	return scenarios, nil
}

// SaveScenarios writes the scenario set as indented JSON, creating the
// parent directory if needed.
func SaveScenarios(path string, scenarios []*Scenario) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(scenarios, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scenarios: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scenarios: %w", err)
	}
	return nil
}

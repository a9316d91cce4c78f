package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ybeven/4D-ARE/internal/store"
)

// jsonScenario is the JSON-serializable form of a stored scenario,
// matching the generator's output shape.
type jsonScenario struct {
	ID            string          `json:"id"`
	Query         string          `json:"query"`
	DataContext   json.RawMessage `json:"data_context"`
	GroundTruth   string          `json:"ground_truth_chain"`
	BoundaryTrap  string          `json:"boundary_trap"`
	FalseLead     string          `json:"false_lead"`
	RootCauseType string          `json:"root_cause_type"`
}

// jsonArmResponse pairs a scenario with one arm's raw response text.
type jsonArmResponse struct {
	ScenarioID string `json:"scenario_id"`
	Response   string `json:"response"`
}

// jsonAgentResults groups responses by arm in run order.
type jsonAgentResults struct {
	Naive     []*jsonArmResponse `json:"naive"`
	Structure []*jsonArmResponse `json:"structure"`
	FourDARE  []*jsonArmResponse `json:"4d-are"`
}

// jsonDetailedResults is the full dump written after the agent phase.
type jsonDetailedResults struct {
	Scenarios    []*jsonScenario   `json:"scenarios"`
	AgentResults *jsonAgentResults `json:"agent_results"`
	Timestamp    string            `json:"timestamp"`
}

// WriteDetailedResults dumps all scenarios and arm responses as indented
// JSON, the input the evaluate phase can be re-run from.
func WriteDetailedResults(path string, scenarios []*store.Scenario, responses []*store.Response) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	jd := &jsonDetailedResults{
		AgentResults: &jsonAgentResults{},
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	for _, sc := range scenarios {
		dataContext := sc.DataContext
		if dataContext == "" {
			dataContext = "{}"
		}
		jd.Scenarios = append(jd.Scenarios, &jsonScenario{
			ID:            sc.ID,
			Query:         sc.Query,
			DataContext:   json.RawMessage(dataContext),
			GroundTruth:   sc.GroundTruth,
			BoundaryTrap:  sc.BoundaryTrap,
			FalseLead:     sc.FalseLead,
			RootCauseType: sc.RootCauseType,
		})
	}

	for _, r := range responses {
		ar := &jsonArmResponse{ScenarioID: r.ScenarioID, Response: r.Response}
		switch r.Arm {
		case "naive":
			jd.AgentResults.Naive = append(jd.AgentResults.Naive, ar)
		case "structure":
			jd.AgentResults.Structure = append(jd.AgentResults.Structure, ar)
		case "4d-are":
			jd.AgentResults.FourDARE = append(jd.AgentResults.FourDARE, ar)
		}
	}

	data, err := json.MarshalIndent(jd, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling detailed results: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing detailed results: %w", err)
	}
	return nil
}

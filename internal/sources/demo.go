package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ybeven/4D-ARE/internal/metrics"
)

// DemoScenario is a canned data context with a known causal chain, used for
// demos and development without any database setup.
type DemoScenario struct {
	ID          string
	Name        string
	Description string
	Data        metrics.Context
	GroundTruth string
}

// DemoScenarios returns the built-in demo scenarios in listing order.
func DemoScenarios() []DemoScenario {
	return []DemoScenario{
		bankingRetention(),
		bankingAUM(),
		healthcareReadmission(),
	}
}

func bankingRetention() DemoScenario {
	var data metrics.Context
	data.Results.Set("retention_rate", metrics.Float(0.56))
	data.Results.Set("target_retention", metrics.Float(0.80))
	data.Results.Set("customer_satisfaction", metrics.Float(0.72))
	data.Results.Set("nps_score", metrics.Int(32))
	data.Process.Set("visit_frequency", metrics.Float(2.1))
	data.Process.Set("cross_sell_rate", metrics.Float(0.28))
	data.Process.Set("quality_score", metrics.Float(0.82))
	data.Process.Set("response_time_hours", metrics.Float(4.5))
	data.Process.Set("first_contact_resolution", metrics.Float(0.65))
	data.Support.Set("staffing_ratio", metrics.Float(0.68))
	data.Support.Set("training_completion", metrics.Float(0.91))
	data.Support.Set("system_availability", metrics.Float(0.995))
	data.Support.Set("marketing_coverage", metrics.Float(0.45))
	data.Longterm.Set("market_trend", metrics.Text("declining"))
	data.Longterm.Set("competitor_entries", metrics.Int(3))
	data.Longterm.Set("regulatory_changes", metrics.Bool(true))
	data.Longterm.Set("economic_outlook", metrics.Text("uncertain"))

	return DemoScenario{
		ID:          "banking_retention",
		Name:        "Banking Customer Retention",
		Description: "Customer retention rate dropped from 80% to 56%",
		Data:        data,
		GroundTruth: "Market decline -> Staff attrition -> Reduced visit frequency -> Lower retention",
	}
}

func bankingAUM() DemoScenario {
	var data metrics.Context
	data.Results.Set("aum_growth", metrics.Float(0.02))
	data.Results.Set("target_growth", metrics.Float(0.08))
	data.Results.Set("new_deposits", metrics.Int(150000000))
	data.Results.Set("outflows", metrics.Int(120000000))
	data.Process.Set("advisor_meetings", metrics.Float(3.2))
	data.Process.Set("product_recommendations", metrics.Float(1.8))
	data.Process.Set("follow_up_rate", metrics.Float(0.55))
	data.Process.Set("proposal_acceptance", metrics.Float(0.32))
	data.Support.Set("advisor_capacity", metrics.Float(0.92))
	data.Support.Set("product_availability", metrics.Float(0.85))
	data.Support.Set("digital_tools_adoption", metrics.Float(0.60))
	data.Longterm.Set("interest_rate_trend", metrics.Text("rising"))
	data.Longterm.Set("market_volatility", metrics.Text("high"))
	data.Longterm.Set("competitor_rates", metrics.Text("aggressive"))

	return DemoScenario{
		ID:          "banking_aum",
		Name:        "Banking AUM Growth",
		Description: "AUM growth stalled at 2% vs 8% target",
		Data:        data,
		GroundTruth: "Market volatility -> Client hesitancy -> Low proposal acceptance -> Stalled growth",
	}
}

func healthcareReadmission() DemoScenario {
	var data metrics.Context
	data.Results.Set("readmission_rate_30d", metrics.Float(0.18))
	data.Results.Set("target_rate", metrics.Float(0.12))
	data.Results.Set("patient_satisfaction", metrics.Float(0.78))
	data.Results.Set("mortality_rate", metrics.Float(0.02))
	data.Process.Set("discharge_planning_score", metrics.Float(0.72))
	data.Process.Set("medication_reconciliation", metrics.Float(0.85))
	data.Process.Set("follow_up_appointment_rate", metrics.Float(0.60))
	data.Process.Set("patient_education_completion", metrics.Float(0.68))
	data.Support.Set("nurse_patient_ratio", metrics.Float(1.0/5.2))
	data.Support.Set("care_coordinator_coverage", metrics.Float(0.45))
	data.Support.Set("bed_availability", metrics.Float(0.88))
	data.Longterm.Set("population_aging", metrics.Text("accelerating"))
	data.Longterm.Set("chronic_disease_prevalence", metrics.Text("increasing"))
	data.Longterm.Set("insurance_coverage_changes", metrics.Bool(true))

	return DemoScenario{
		ID:          "healthcare_readmission",
		Name:        "Healthcare Readmission Rate",
		Description: "30-day readmission rate at 18% vs 12% target",
		Data:        data,
		GroundTruth: "Aging population -> Higher acuity -> Insufficient follow-up -> Higher readmissions",
	}
}

// Demo serves static scenario data. The active scenario can be switched at
// runtime, so access is guarded for concurrent MCP tool calls.
type Demo struct {
	mu        sync.Mutex
	scenarios []DemoScenario
	current   int
}

// NewDemo creates a demo source starting on the named scenario. An empty ID
// selects the first scenario.
func NewDemo(scenarioID string) (*Demo, error) {
	d := &Demo{scenarios: DemoScenarios()}
	if scenarioID == "" {
		return d, nil
	}
	if err := d.SetScenario(scenarioID); err != nil {
		return nil, err
	}
	return d, nil
}

// Name implements Source.
func (d *Demo) Name() string { return "demo" }

// Fetch returns the active scenario's data context.
func (d *Demo) Fetch(ctx context.Context) (metrics.Context, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scenarios[d.current].Data, nil
}

// Scenario returns the active scenario.
func (d *Demo) Scenario() DemoScenario {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scenarios[d.current]
}

// SetScenario switches the active scenario.
func (d *Demo) SetScenario(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.scenarios {
		if s.ID == id {
			d.current = i
			return nil
		}
	}
	ids := make([]string, len(d.scenarios))
	for i, s := range d.scenarios {
		ids[i] = s.ID
	}
	return fmt.Errorf("unknown scenario %q (available: %s)", id, strings.Join(ids, ", "))
}

// ListScenarios returns all scenarios in listing order.
func (d *Demo) ListScenarios() []DemoScenario {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DemoScenario, len(d.scenarios))
	copy(out, d.scenarios)
	return out
}

package prompt

// Template configures the attribution prompt for one business domain. The
// four example lists are illustrative text for the rendered instructions
// only; they never validate or constrain the metric context supplied at
// analysis time. Boundary rules are interpolated verbatim as bullet lines.
type Template struct {
	Domain     string   `yaml:"domain"`
	Results    []string `yaml:"results"`
	Process    []string `yaml:"process"`
	Support    []string `yaml:"support"`
	Longterm   []string `yaml:"longterm"`
	Boundaries []string `yaml:"boundaries"`
}

// Banking is the default preset, tuned for retail banking operations.
func Banking() Template {
	return Template{
		Domain:   "Banking Operations",
		Results:  []string{"completion_rate", "AUM_growth", "customer_retention", "new_customer_acquisition"},
		Process:  []string{"visit_frequency", "cross_sell_rate", "quality_score", "conversion_rate"},
		Support:  []string{"staffing_ratio", "marketing_coverage", "training_completion", "system_availability"},
		Longterm: []string{"market_trend", "competitor_entries", "regulatory_changes", "economic_cycle"},
		Boundaries: []string{
			"Never recommend on personnel matters (hiring, firing, transfers, compensation)",
			"Never make strategic resource allocation decisions",
			"Use hedged language for all inferences",
		},
	}
}

// Healthcare is the preset for hospital and clinic operations.
func Healthcare() Template {
	return Template{
		Domain:   "Healthcare Operations",
		Results:  []string{"readmission_rate", "patient_satisfaction", "mortality_rate", "length_of_stay"},
		Process:  []string{"care_coordination", "treatment_adherence", "diagnostic_accuracy", "follow_up_rate"},
		Support:  []string{"nurse_patient_ratio", "equipment_availability", "bed_occupancy", "staff_training"},
		Longterm: []string{"regulatory_changes", "population_health_trends", "insurance_coverage", "technology_adoption"},
		Boundaries: []string{
			"Never recommend specific treatment decisions for individual patients",
			"Never suggest specific personnel actions",
			"Use clinical evidence language: 'evidence suggests', 'studies indicate'",
		},
	}
}

// Ecommerce is the preset for online retail operations.
func Ecommerce() Template {
	return Template{
		Domain:   "E-commerce Operations",
		Results:  []string{"conversion_rate", "average_order_value", "customer_lifetime_value", "return_rate"},
		Process:  []string{"page_load_time", "checkout_completion", "search_relevance", "recommendation_click_rate"},
		Support:  []string{"inventory_availability", "customer_service_capacity", "fulfillment_speed", "platform_uptime"},
		Longterm: []string{"market_trends", "competitor_pricing", "seasonal_patterns", "consumer_behavior_shifts"},
		Boundaries: []string{
			"Never recommend specific pricing decisions",
			"Never suggest personnel changes",
			"Use data-driven language with confidence intervals where applicable",
		},
	}
}

// Default returns the template used when no domain is selected.
func Default() Template {
	return Banking()
}

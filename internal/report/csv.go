package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ybeven/4D-ARE/internal/store"
)

// resultArms fixes the column-group order in exported files.
var resultArms = []string{"naive", "structure", "4d-are"}

// WriteResultsCSV writes the per-scenario score matrix: one row per
// scenario, five columns per arm (scores plus the judge's reasoning).
// Column prefixes are the arm names with dashes folded to underscores.
func WriteResultsCSV(path string, evals []*store.Evaluation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating results file: %w", err)
	}
	defer f.Close()

	byScenario := make(map[string]map[string]*store.Evaluation)
	var ids []string
	for _, e := range evals {
		m := byScenario[e.ScenarioID]
		if m == nil {
			m = make(map[string]*store.Evaluation)
			byScenario[e.ScenarioID] = m
			ids = append(ids, e.ScenarioID)
		}
		m[e.Arm] = e
	}
	sort.Strings(ids)

	w := csv.NewWriter(f)
	header := []string{"scenario_id"}
	for _, arm := range resultArms {
		prefix := strings.ReplaceAll(arm, "-", "_")
		header = append(header,
			prefix+"_chain", prefix+"_sep", prefix+"_action", prefix+"_bound", prefix+"_reasoning")
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing results header: %w", err)
	}

	for _, id := range ids {
		row := []string{id}
		for _, arm := range resultArms {
			e := byScenario[id][arm]
			if e == nil {
				row = append(row, "", "", "", "", "")
				continue
			}
			row = append(row,
				formatScore(e.CausalChain),
				formatScore(e.DimSeparation),
				formatScore(e.Actionability),
				formatScore(e.Boundary),
				e.Reasoning)
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing results row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing results: %w", err)
	}
	return nil
}

// formatScore renders whole-number scores without a decimal point.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

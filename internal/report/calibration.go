package report

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/ybeven/4D-ARE/internal/store"
)

// calibrationPreviewLimit caps the response preview so the CSV stays
// readable in a spreadsheet.
const calibrationPreviewLimit = 500

// WriteCalibrationSample writes a CSV of randomly sampled scenarios with one
// row per arm, for humans to score independently of the LLM judge. The
// human_* columns and notes are left blank for the reviewer to fill in.
func WriteCalibrationSample(path string, scenarios []*store.Scenario, responses []*store.Response, n int) error {
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios to sample")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	type responseKey struct {
		scenarioID string
		arm        string
	}
	byKey := make(map[responseKey]string, len(responses))
	for _, r := range responses {
		byKey[responseKey{r.ScenarioID, r.Arm}] = r.Response
	}

	if n > len(scenarios) {
		n = len(scenarios)
	}
	picks := rand.Perm(len(scenarios))[:n]

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating calibration sample: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"scenario_id", "agent_type", "query", "ground_truth", "boundary_trap",
		"response_preview",
		"human_attr_acc", "human_dim_cov", "human_str_clar", "human_bnd_comp",
		"notes",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing calibration header: %w", err)
	}

	for _, idx := range picks {
		sc := scenarios[idx]
		for _, arm := range resultArms {
			row := []string{
				sc.ID,
				arm,
				sc.Query,
				sc.GroundTruth,
				sc.BoundaryTrap,
				truncateRunes(byKey[responseKey{sc.ID, arm}], calibrationPreviewLimit),
				"", "", "", "",
				"",
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("writing calibration row for %s: %w", sc.ID, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing calibration sample: %w", err)
	}
	return nil
}

// truncateRunes shortens s to at most limit runes, appending "..." when
// anything was cut. Responses contain CJK text, so the cut is by rune
// rather than byte.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
